package tilegemm

import "fmt"

// DataType identifies the element type of an operand
type DataType int

const (
	InvalidType DataType = iota
	F32
	F16
	BF16
	I8
	I32
)

// Size returns the element size in bytes
func (t DataType) Size() int {
	switch t {
	case F32, I32:
		return 4
	case F16, BF16:
		return 2
	case I8:
		return 1
	default:
		return 0
	}
}

// IsInteger reports whether t is an integer type
func (t DataType) IsInteger() bool {
	return t == I8 || t == I32
}

// Valid reports whether t names a supported element type
func (t DataType) Valid() bool {
	return t > InvalidType && t <= I32
}

func (t DataType) String() string {
	switch t {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case BF16:
		return "bf16"
	case I8:
		return "i8"
	case I32:
		return "i32"
	default:
		return "invalid"
	}
}

// ParseDataType converts a name such as "f16" to a DataType
func ParseDataType(s string) (DataType, error) {
	for t := F32; t <= I32; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return InvalidType, fmt.Errorf("unknown data type %q", s)
}

// Layout describes how an operand is laid out in memory
type Layout int

const (
	InvalidLayout Layout = iota
	// RowMajor: element (r, c) of an R×C matrix lives at r*Stride + c
	RowMajor
	// ColMajor: element (r, c) of an R×C matrix lives at c*Stride + r
	ColMajor
	// Grouped convolution tensors, G outermost, channels innermost
	GNHWC
	GKYXC
	GNHWK
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row"
	case ColMajor:
		return "col"
	case GNHWC:
		return "gnhwc"
	case GKYXC:
		return "gkyxc"
	case GNHWK:
		return "gnhwk"
	default:
		return "invalid"
	}
}

// ParseLayout converts a name such as "row" to a Layout
func ParseLayout(s string) (Layout, error) {
	for l := RowMajor; l <= GNHWK; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return InvalidLayout, fmt.Errorf("unknown layout %q", s)
}

// OpKind is the kind of contraction an instance implements
type OpKind int

const (
	OpInvalid OpKind = iota
	// OpGemm computes C[m, n] = epilogue(sum_k A[m, k] * B[k, n])
	OpGemm
	// OpGroupedConvBwdWeight computes filter gradients of a grouped 2-D
	// convolution, lowered to one GEMM per group
	OpGroupedConvBwdWeight
)

func (o OpKind) String() string {
	switch o {
	case OpGemm:
		return "gemm"
	case OpGroupedConvBwdWeight:
		return "grouped_conv2d_bwd_weight"
	default:
		return "invalid"
	}
}

// ParseOpKind converts a name such as "gemm" to an OpKind
func ParseOpKind(s string) (OpKind, error) {
	for o := OpGemm; o <= OpGroupedConvBwdWeight; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return OpInvalid, fmt.Errorf("unknown operation %q", s)
}

// TypeSet binds the element types of one instance
type TypeSet struct {
	A, B, C  DataType
	Acc      DataType // accumulation type
	CShuffle DataType // element type of the C-shuffle staging tile
}

func (t TypeSet) String() string {
	return fmt.Sprintf("%s_%s_%s", t.A, t.B, t.C)
}

// LayoutSet binds the operand layouts of one instance
type LayoutSet struct {
	A, B, C Layout
}

func (l LayoutSet) String() string {
	return fmt.Sprintf("%s_%s_%s", l.A, l.B, l.C)
}

// Key identifies a family of interchangeable instances. Acc and CShuffle
// types are implied by the instance and are not part of the lookup.
type Key struct {
	Op      OpKind
	A, B, C DataType
	Layouts LayoutSet
}

// KeyOf builds the lookup key for op, types and layouts
func KeyOf(op OpKind, types TypeSet, layouts LayoutSet) Key {
	return Key{Op: op, A: types.A, B: types.B, C: types.C, Layouts: layouts}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s_%s_%s/%s", k.Op, k.A, k.B, k.C, k.Layouts)
}

// Dim3 represents 3D dimensions for grid configurations.
// X walks M tiles, Y walks N tiles and Z walks batches (and K splits).
type Dim3 struct {
	X, Y, Z int
}

// Size returns the total number of blocks
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
