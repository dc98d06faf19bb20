//go:build linux

package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/ja7ad/sonar/pkg/envelope"
	"github.com/ja7ad/sonar/pkg/nodelist"
)

// FetchCluster queries partition and node-state listings and expands their
// compressed nodelists.
func FetchCluster(ctx context.Context, api API) (envelope.ClusterAttributes, error) {
	partRaw, err := api.RunSinfoPartitions(ctx)
	if err != nil {
		return envelope.ClusterAttributes{}, fmt.Errorf("scheduler: sinfo partitions: %w", err)
	}
	nodeRaw, err := api.RunSinfoNodes(ctx)
	if err != nil {
		return envelope.ClusterAttributes{}, fmt.Errorf("scheduler: sinfo nodes: %w", err)
	}

	partitions, err := parsePartitions(partRaw)
	if err != nil {
		return envelope.ClusterAttributes{}, err
	}
	nodes, err := parseNodeStates(nodeRaw)
	if err != nil {
		return envelope.ClusterAttributes{}, err
	}
	return envelope.ClusterAttributes{Partitions: partitions, Nodes: nodes}, nil
}

// parsePartitions reads "name|compressed-nodelist" lines. A trailing "*" on
// the partition name (the scheduler's default-partition marker) is
// stripped.
func parsePartitions(raw string) ([]envelope.ClusterPartition, error) {
	var out []envelope.ClusterPartition
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		name, list, ok := splitPipe(line)
		if !ok {
			continue
		}
		name = strings.TrimSuffix(name, "*")
		names, err := nodelist.ExpandAll(list)
		if err != nil {
			return nil, fmt.Errorf("scheduler: partition nodelist %q: %w", list, err)
		}
		out = append(out, envelope.ClusterPartition{Name: name, Nodes: names})
	}
	return out, nil
}

// parseNodeStates reads "compressed-nodelist|state+state+..." lines,
// splitting state on "+" and uppercasing each token.
func parseNodeStates(raw string) ([]envelope.ClusterNodeState, error) {
	var out []envelope.ClusterNodeState
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		list, states, ok := splitPipe(line)
		if !ok {
			continue
		}
		names, err := nodelist.ExpandAll(list)
		if err != nil {
			return nil, fmt.Errorf("scheduler: node nodelist %q: %w", list, err)
		}
		var stateList []string
		for _, s := range strings.Split(states, "+") {
			stateList = append(stateList, strings.ToUpper(s))
		}
		out = append(out, envelope.ClusterNodeState{Names: names, States: stateList})
	}
	return out, nil
}

func splitPipe(line string) (a, b string, ok bool) {
	i := strings.IndexByte(line, '|')
	if i < 0 {
		return "", "", false
	}
	return line[:i], line[i+1:], true
}
