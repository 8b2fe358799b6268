package tilegemm

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks the host instruction set extensions the compute cores
// care about
type CPUFeatures struct {
	HasAVX2    bool
	HasAVX512F bool
	HasFMA     bool
	HasASIMD   bool // ARM64 Advanced SIMD
	HasFP16    bool // ARM64 half precision arithmetic
}

// Global CPU feature detection
var cpuFeatures CPUFeatures

func init() {
	detectCPUFeatures()
}

// detectCPUFeatures populates the global cpuFeatures struct
func detectCPUFeatures() {
	cpuFeatures = CPUFeatures{
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasASIMD:   cpu.ARM64.HasASIMD,
		HasFP16:    cpu.ARM64.HasFPHP && cpu.ARM64.HasASIMDHP,
	}
}

// Features returns the detected host features
func Features() CPUFeatures {
	return cpuFeatures
}

// HasMatrixFMA reports whether the host has fused multiply-add vector units
// wide enough to back the matrix-instruction core
func HasMatrixFMA() bool {
	return cpuFeatures.HasFMA || cpuFeatures.HasASIMD
}

// ComputeCore is the multiply-accumulate primitive the compute units of an
// instance run on each staged chunk
type ComputeCore int

const (
	// CoreDot is the software dot-product fallback
	CoreDot ComputeCore = iota
	// CoreXdl emulates a matrix instruction with rank-1 updates
	CoreXdl
)

func (c ComputeCore) String() string {
	if c == CoreXdl {
		return "xdl"
	}
	return "dot"
}

// xdlShapes are the subtile shapes the matrix-instruction core implements
var xdlShapes = map[[2]int]bool{
	{32, 32}: true,
	{16, 16}: true,
}

// SelectCore picks the compute core for an MPerXdl × NPerXdl subtile on
// this host
func SelectCore(mPerXdl, nPerXdl int) ComputeCore {
	if HasMatrixFMA() && xdlShapes[[2]int{mPerXdl, nPerXdl}] {
		return CoreXdl
	}
	return CoreDot
}

// GetCPUInfo returns a string describing available CPU features
func GetCPUInfo() string {
	var features []string
	if cpuFeatures.HasAVX2 {
		features = append(features, "AVX2")
	}
	if cpuFeatures.HasFMA {
		features = append(features, "FMA")
	}
	if cpuFeatures.HasAVX512F {
		features = append(features, "AVX512F")
	}
	if cpuFeatures.HasASIMD {
		features = append(features, "ASIMD")
	}
	if cpuFeatures.HasFP16 {
		features = append(features, "FP16")
	}

	if len(features) == 0 {
		return "No SIMD extensions detected"
	}
	return "CPU features: " + strings.Join(features, ", ")
}
