package envelope

// SysinfoAttributes is the static node description produced by the
// inventory component.
type SysinfoAttributes struct {
	Time           string     `json:"time"`
	Cluster        string     `json:"cluster"`
	Node           string     `json:"node"`
	Sockets        int        `json:"sockets"`
	CoresPerSocket int        `json:"cores_per_socket"`
	ThreadsPerCore int        `json:"threads_per_core"`
	CoreModels     []string   `json:"core_models"`
	MemoryKiB      uint64     `json:"memory_kib"`
	Description    string     `json:"description"`
	Cards          []GpuCard  `json:"cards,omitempty"`
}

// GpuCard is the static per-card inventory record.
type GpuCard struct {
	UUID          string `json:"uuid"`
	Index         int    `json:"index"`
	Manufacturer  string `json:"manufacturer"`
	Model         string `json:"model"`
	Architecture  string `json:"architecture"`
	Driver        string `json:"driver"`
	Firmware      string `json:"firmware"`
	BusAddress    string `json:"bus_address"`
	MemoryKiB     uint64 `json:"memory_kib"`
	PowerLimitW   uint64 `json:"power_limit_watts"`
	MinPowerW     uint64 `json:"min_power_limit_watts"`
	MaxPowerW     uint64 `json:"max_power_limit_watts"`
	MaxCEClockMHz uint64 `json:"max_ce_clock_mhz"`
	MaxMemClockMHz uint64 `json:"max_memory_clock_mhz"`
}

// GpuCardState is the per-sample dynamic card record.
type GpuCardState struct {
	CardIndex    int     `json:"card_index"`
	Failing      bool    `json:"failing"`
	FanPct       float64 `json:"fan_pct"`
	ComputeMode  string  `json:"compute_mode"`
	PerfState    int     `json:"performance_state"` // -1 means unknown
	UsedMemKiB   uint64  `json:"memory_used_kib"`
	ReservedKiB  uint64  `json:"memory_reserved_kib"`
	GpuUtilPct   float64 `json:"gpu_util_pct"`
	MemUtilPct   float64 `json:"memory_util_pct"`
	TempC        int64   `json:"temperature_c"`
	PowerW       float64 `json:"power_watts"`
	PowerLimitW  float64 `json:"power_limit_watts"`
	CEClockMHz   uint64  `json:"ce_clock_mhz"`
	MemClockMHz  uint64  `json:"memory_clock_mhz"`
}
