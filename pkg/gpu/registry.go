//go:build linux

package gpu

// Families returns the real accelerator families in probe order. Only one
// is expected to report live hardware on a given node.
func Families() []Family {
	return []Family{
		NvidiaFamily{},
		AMDFamily{},
		HabanaFamily{},
		XPUFamily{},
	}
}

// Probe runs discovery across every known family and returns the first
// live handle found, or nil.
func Probe() Handle {
	return ProbeAll(Families())
}
