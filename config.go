// Package tilegemm configuration constants
package tilegemm

// Execution model
const (
	// WaveSize is the number of lanes in one compute unit (wavefront)
	WaveSize = 64

	// MaxThreadsPerBlock bounds the thread-group size of any plan
	MaxThreadsPerBlock = 1024

	// StagingCapacity is the on-chip region available to one thread group
	// for operand staging and the C-shuffle tile, in bytes
	StagingCapacity = 128 * 1024

	// MinPrefetchStages is the smallest staging ring that still overlaps
	// transfer of chunk i+1 with compute of chunk i
	MinPrefetchStages = 2
)

// Memory parameters
const (
	// Alignment for workspace allocations
	MemoryAlignment = 64
)

// Numerical constants
const (
	// Machine epsilon for float32
	Float32Epsilon = 1.192092896e-07

	// Maximum ULP difference for float32 comparisons
	MaxULPDiff = 4

	// Inputs beyond this magnitude saturate in the activation epilogues
	ActivationSaturation = 10.0
)
