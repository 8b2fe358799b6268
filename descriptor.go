package tilegemm

import (
	"slices"
)

// OperandDesc describes one main-memory operand. Stride is the leading
// dimension in elements (distance between consecutive rows for RowMajor,
// columns for ColMajor); BatchStride is the distance between batches.
// Zero means packed. Convolution operands derive both from ConvParams and
// must leave them zero.
type OperandDesc struct {
	Type        DataType
	Layout      Layout
	Stride      int
	BatchStride int
}

// AuxBroadcast selects how an auxiliary operand is indexed by (m, n)
type AuxBroadcast int

const (
	// AuxPerColumn holds one value per output column, e.g. a bias over N
	AuxPerColumn AuxBroadcast = iota
	// AuxPerRow holds one value per output row
	AuxPerRow
	// AuxFull is a row-major M×N tensor, e.g. the D of alpha*AB + beta*D
	AuxFull
)

func (b AuxBroadcast) String() string {
	switch b {
	case AuxPerColumn:
		return "per_column"
	case AuxPerRow:
		return "per_row"
	case AuxFull:
		return "full"
	default:
		return "invalid"
	}
}

// AuxDesc describes one auxiliary epilogue input
type AuxDesc struct {
	Type        DataType
	Broadcast   AuxBroadcast
	Stride      int // leading stride for AuxFull, zero means N
	BatchStride int // zero means packed
}

// ProblemDescriptor is the canonical form of one contraction problem:
// C[b][m][n] = epilogue(sum_k A[b][m][k] * B[b][k][n], aux...).
// Convolutions arrive here already lowered, with the spatial parameters
// kept in Conv for bounds logic.
type ProblemDescriptor struct {
	Op      OpKind
	M, N, K int

	// Batch is the number of independent problems (groups for conv)
	Batch int
	// KBatch splits the reduction across that many thread groups; the
	// partial sums meet in the workspace. 1 disables split-K.
	KBatch int

	A, B, C  OperandDesc
	Epilogue Epilogue
	Aux      []AuxDesc
	Conv     *ConvParams
}

// NewGemm builds a packed, single-batch GEMM descriptor
func NewGemm(m, n, k int, types TypeSet, layouts LayoutSet) *ProblemDescriptor {
	return &ProblemDescriptor{
		Op: OpGemm,
		M:  m, N: n, K: k,
		Batch:  1,
		KBatch: 1,
		A:      OperandDesc{Type: types.A, Layout: layouts.A},
		B:      OperandDesc{Type: types.B, Layout: layouts.B},
		C:      OperandDesc{Type: types.C, Layout: layouts.C},
	}
}

// Key is the catalog lookup key of the problem
func (d *ProblemDescriptor) Key() Key {
	return Key{
		Op: d.Op,
		A:  d.A.Type, B: d.B.Type, C: d.C.Type,
		Layouts: LayoutSet{A: d.A.Layout, B: d.B.Layout, C: d.C.Layout},
	}
}

// Clone returns a copy of d with its own aux list and convolution
// parameters. The epilogue is shared.
func (d *ProblemDescriptor) Clone() *ProblemDescriptor {
	c := *d
	c.Aux = slices.Clone(d.Aux)
	if d.Conv != nil {
		p := *d.Conv
		c.Conv = &p
	}
	return &c
}

// AccType is the accumulation type used for the problem's input type
func (d *ProblemDescriptor) AccType() DataType {
	if d.A.Type.IsInteger() {
		return I32
	}
	return F32
}

// Validate checks the descriptor for internal consistency. It has no side
// effects and reports the first problem found as a DescriptorInvalid error.
func (d *ProblemDescriptor) Validate() error {
	const op = "Validate"

	if d == nil {
		return NewDescriptorError(op, "nil descriptor")
	}
	if d.M <= 0 || d.N <= 0 || d.K <= 0 {
		return NewDescriptorError(op, "non-positive shape M=%d N=%d K=%d", d.M, d.N, d.K)
	}
	if d.Batch < 1 {
		return NewDescriptorError(op, "batch %d < 1", d.Batch)
	}
	if d.KBatch < 1 || d.KBatch > d.K {
		return NewDescriptorError(op, "k-batch %d outside [1, K=%d]", d.KBatch, d.K)
	}
	if err := d.validateTypes(); err != nil {
		return err
	}

	switch d.Op {
	case OpGemm:
		if d.Conv != nil {
			return NewDescriptorError(op, "gemm carries convolution parameters")
		}
		for _, o := range d.gemmOperands() {
			if err := o.validate(d.Batch); err != nil {
				return err
			}
		}
	case OpGroupedConvBwdWeight:
		if err := d.validateConv(); err != nil {
			return err
		}
	default:
		return NewDescriptorError(op, "unknown operation %v", d.Op)
	}

	return d.validateAux()
}

func (d *ProblemDescriptor) validateTypes() error {
	const op = "Validate"
	for _, t := range []DataType{d.A.Type, d.B.Type, d.C.Type} {
		if !t.Valid() {
			return NewDescriptorError(op, "invalid element type %v", t)
		}
	}
	if d.A.Type != d.B.Type {
		return NewDescriptorError(op, "A and B types differ: %v vs %v", d.A.Type, d.B.Type)
	}
	if d.A.Type == I32 {
		return NewDescriptorError(op, "i32 is an accumulation type, not an input type")
	}
	if d.A.Type.IsInteger() != d.C.Type.IsInteger() {
		return NewDescriptorError(op, "cannot write %v accumulation to %v output", d.AccType(), d.C.Type)
	}
	return nil
}

func (d *ProblemDescriptor) validateConv() error {
	const op = "Validate"
	p := d.Conv
	if p == nil {
		return NewDescriptorError(op, "convolution without ConvParams")
	}
	if err := p.Validate(); err != nil {
		return NewDescriptorError(op, "%v", err)
	}
	if d.A.Layout != GNHWK || d.B.Layout != GNHWC || d.C.Layout != GKYXC {
		return NewDescriptorError(op, "backward weight needs gnhwk/gnhwc/gkyxc layouts, got %s/%s/%s",
			d.A.Layout, d.B.Layout, d.C.Layout)
	}
	for _, o := range []OperandDesc{d.A, d.B, d.C} {
		if o.Stride != 0 || o.BatchStride != 0 {
			return NewDescriptorError(op, "convolution strides derive from ConvParams")
		}
	}
	if d.M != p.OutChannels ||
		d.N != p.KernelHeight*p.KernelWidth*p.InChannels ||
		d.K != p.BatchSize*p.OutputHeight()*p.OutputWidth() ||
		d.Batch != p.Groups {
		return NewDescriptorError(op, "lowered shape %dx%dx%d batch %d disagrees with ConvParams",
			d.M, d.N, d.K, d.Batch)
	}
	return nil
}

func (d *ProblemDescriptor) validateAux() error {
	const op = "Validate"
	epi := epilogueOrDefault(d.Epilogue)
	if epi.Arity() != len(d.Aux) {
		return NewDescriptorError(op, "epilogue %s takes %d aux operands, got %d",
			epi.Name(), epi.Arity(), len(d.Aux))
	}
	for i, a := range d.Aux {
		if !a.Type.Valid() {
			return NewDescriptorError(op, "aux %d: invalid type %v", i, a.Type)
		}
		if a.Stride < 0 || a.BatchStride < 0 {
			return NewDescriptorError(op, "aux %d: negative stride", i)
		}
		switch a.Broadcast {
		case AuxPerColumn, AuxPerRow:
			if a.Stride != 0 {
				return NewDescriptorError(op, "aux %d: %s operand has no leading stride", i, a.Broadcast)
			}
		case AuxFull:
			if a.Stride != 0 && a.Stride < d.N {
				return NewDescriptorError(op, "aux %d: stride %d < N=%d", i, a.Stride, d.N)
			}
		default:
			return NewDescriptorError(op, "aux %d: invalid broadcast %d", i, a.Broadcast)
		}
		v := d.auxView(i, nil)
		if d.Batch > 1 && v.batchStride < v.span(d.M, d.N) {
			return NewDescriptorError(op, "aux %d: batch stride %d overlaps previous batch", i, v.batchStride)
		}
	}
	return nil
}

// gemmOperand is an OperandDesc resolved against the problem shape
type gemmOperand struct {
	name        string
	desc        OperandDesc
	rows, cols  int
	ld          int
	batchStride int
}

// contiguous is the extent along the unit-stride dimension
func (o gemmOperand) contiguous() int {
	if o.desc.Layout == ColMajor {
		return o.rows
	}
	return o.cols
}

func (o gemmOperand) outer() int {
	if o.desc.Layout == ColMajor {
		return o.cols
	}
	return o.rows
}

func (o gemmOperand) span() int {
	return (o.outer()-1)*o.ld + o.contiguous()
}

func (o gemmOperand) validate(batch int) error {
	const op = "Validate"
	if o.desc.Layout != RowMajor && o.desc.Layout != ColMajor {
		return NewDescriptorError(op, "%s: gemm operands must be row or col major, got %s", o.name, o.desc.Layout)
	}
	if o.desc.Stride < 0 || o.desc.BatchStride < 0 {
		return NewDescriptorError(op, "%s: negative stride", o.name)
	}
	if o.ld < o.contiguous() {
		return NewDescriptorError(op, "%s: leading stride %d < contiguous extent %d", o.name, o.ld, o.contiguous())
	}
	if batch > 1 && o.batchStride < o.span() {
		return NewDescriptorError(op, "%s: batch stride %d overlaps previous batch (span %d)", o.name, o.batchStride, o.span())
	}
	return nil
}

func resolveOperand(name string, desc OperandDesc, rows, cols int) gemmOperand {
	o := gemmOperand{name: name, desc: desc, rows: rows, cols: cols}
	o.ld = desc.Stride
	if o.ld == 0 {
		o.ld = o.contiguous()
	}
	o.batchStride = desc.BatchStride
	if o.batchStride == 0 {
		o.batchStride = o.outer() * o.ld
	}
	return o
}

func (d *ProblemDescriptor) gemmOperands() [3]gemmOperand {
	return [3]gemmOperand{
		resolveOperand("A", d.A, d.M, d.K),
		resolveOperand("B", d.B, d.K, d.N),
		resolveOperand("C", d.C, d.M, d.N),
	}
}

// Footprint returns the minimum element counts of the A, B and C buffers
func (d *ProblemDescriptor) Footprint() (a, b, c int) {
	if d.Op == OpGroupedConvBwdWeight && d.Conv != nil {
		return d.Conv.OutputElements(), d.Conv.InputElements(), d.Conv.WeightElements()
	}
	ops := d.gemmOperands()
	var n [3]int
	for i, o := range ops {
		n[i] = (d.Batch-1)*o.batchStride + o.span()
	}
	return n[0], n[1], n[2]
}

// AuxFootprint returns the minimum element count of aux operand i
func (d *ProblemDescriptor) AuxFootprint(i int) int {
	v := d.auxView(i, nil)
	return (d.Batch-1)*v.batchStride + v.span(d.M, d.N)
}

// WorkspaceSize is the scratch memory a launch of this problem needs, in
// bytes. Only split-K problems need any.
func (d *ProblemDescriptor) WorkspaceSize() int {
	if d.KBatch <= 1 {
		return 0
	}
	return d.KBatch * d.Batch * d.M * d.N * d.AccType().Size()
}
