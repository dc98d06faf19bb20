package envelope

// ClusterAttributes is the attribute payload of a "cluster" envelope:
// partition-to-node and node-to-state relations.
type ClusterAttributes struct {
	Time       string             `json:"time"`
	Cluster    string             `json:"cluster"`
	Partitions []ClusterPartition `json:"partitions"`
	Nodes      []ClusterNodeState `json:"nodes"`
}

// ClusterPartition is one partition and its expanded node-name list.
type ClusterPartition struct {
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

// ClusterNodeState is one expanded node-name list and its state set.
type ClusterNodeState struct {
	Names  []string `json:"names"`
	States []string `json:"states"`
}
