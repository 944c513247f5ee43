package gudafem

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// detectCPUFeatures lists the vector extensions the reduction kernels can
// take advantage of on this machine.
func detectCPUFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}

	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE41 || cpu.X86.HasSSE42, "SSE4")
		add(cpu.X86.HasAVX, "AVX")
		add(cpu.X86.HasAVX2, "AVX2")
		add(cpu.X86.HasFMA, "FMA")
		add(cpu.X86.HasAVX512F, "AVX512F")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "NEON")
		add(cpu.ARM64.HasFPHP, "FP16")
		add(cpu.ARM64.HasSVE, "SVE")
	}
	return features
}

// HasFeature reports whether the device advertises the named extension.
func (d *Device) HasFeature(name string) bool {
	for _, f := range d.Features {
		if f == name {
			return true
		}
	}
	return false
}
