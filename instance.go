package tilegemm

import (
	"fmt"
)

// Specialization names the shape assumptions an instance is compiled for.
// It decides which problems the instance accepts.
type Specialization int

const (
	// GemmDefault needs M, N and K to be whole multiples of the block tile
	GemmDefault Specialization = iota
	// GemmKPadding pads a partial final K chunk; M and N must divide
	GemmKPadding
	// GemmMNPadding clips partial M and N tiles; K must divide
	GemmMNPadding
	// GemmMNKPadding accepts any shape
	GemmMNKPadding
	// ConvBwdWeightDefault handles any backward-weight convolution
	ConvBwdWeightDefault
	// ConvBwdWeightFilter1x1Stride1Pad0 needs 1x1 filters, unit stride and
	// dilation and no padding
	ConvBwdWeightFilter1x1Stride1Pad0
)

func (s Specialization) String() string {
	switch s {
	case GemmDefault:
		return "default"
	case GemmKPadding:
		return "k_padding"
	case GemmMNPadding:
		return "mn_padding"
	case GemmMNKPadding:
		return "mnk_padding"
	case ConvBwdWeightDefault:
		return "conv_bwd_weight_default"
	case ConvBwdWeightFilter1x1Stride1Pad0:
		return "filter1x1_stride1_pad0"
	default:
		return "invalid"
	}
}

// Op is the operation kind the specialization belongs to
func (s Specialization) Op() OpKind {
	switch s {
	case GemmDefault, GemmKPadding, GemmMNPadding, GemmMNKPadding:
		return OpGemm
	case ConvBwdWeightDefault, ConvBwdWeightFilter1x1Stride1Pad0:
		return OpGroupedConvBwdWeight
	default:
		return OpInvalid
	}
}

func (s Specialization) padsM() bool { return s == GemmMNPadding || s == GemmMNKPadding }
func (s Specialization) padsK() bool { return s == GemmKPadding || s == GemmMNKPadding }

// Instance is a tile plan bound to concrete types, layouts and a
// specialization. Instances are immutable once built.
type Instance struct {
	name    string
	family  string
	op      OpKind
	types   TypeSet
	layouts LayoutSet
	spec    Specialization
	plan    *TilePlan
	core    ComputeCore
}

// NewInstance validates the combination and builds an instance. Errors
// here are build-time defects in an instance table.
func NewInstance(family string, types TypeSet, layouts LayoutSet, spec Specialization, plan TilePlan) (*Instance, error) {
	const op = "NewInstance"
	kind := spec.Op()
	if kind == OpInvalid {
		return nil, NewPlanError(op, "invalid specialization %d", spec)
	}
	if types.A != types.B {
		return nil, NewPlanError(op, "A and B types differ: %v vs %v", types.A, types.B)
	}
	wantAcc := F32
	if types.A.IsInteger() {
		wantAcc = I32
	}
	if types.Acc != wantAcc {
		return nil, NewPlanError(op, "%v inputs accumulate in %v, not %v", types.A, wantAcc, types.Acc)
	}
	if types.A.IsInteger() != types.C.IsInteger() {
		return nil, NewPlanError(op, "cannot write %v accumulation to %v", types.Acc, types.C)
	}

	switch kind {
	case OpGemm:
		for _, l := range []Layout{layouts.A, layouts.B, layouts.C} {
			if l != RowMajor && l != ColMajor {
				return nil, NewPlanError(op, "gemm layout %s", l)
			}
		}
	case OpGroupedConvBwdWeight:
		if layouts != (LayoutSet{A: GNHWK, B: GNHWC, C: GKYXC}) {
			return nil, NewPlanError(op, "backward weight layouts %s", layouts)
		}
	}

	p, err := NewTilePlan(plan, types.A, types.CShuffle)
	if err != nil {
		return nil, err
	}

	// Vector reads must run along the contiguous dimension
	for _, t := range []struct {
		name   string
		desc   TransferDesc
		layout Layout
		isA    bool
	}{
		{"A", p.ATransfer, layouts.A, true},
		{"B", p.BTransfer, layouts.B, false},
	} {
		if t.desc.SrcScalarPerVector == 1 {
			continue
		}
		alongK := t.desc.SrcVectorDim == VectorDimK1
		if alongK != contiguousAlongK(t.layout, t.isA) {
			return nil, NewPlanError(op, "%s vector reads of %d cross the non-contiguous dimension of %s",
				t.name, t.desc.SrcScalarPerVector, t.layout)
		}
	}
	if layouts.C == ColMajor && p.Shuffle.ScalarPerVector > 1 {
		return nil, NewPlanError(op, "C stores of %d need a row-major output", p.Shuffle.ScalarPerVector)
	}

	inst := &Instance{
		family:  family,
		op:      kind,
		types:   types,
		layouts: layouts,
		spec:    spec,
		plan:    p,
		core:    SelectCore(p.MPerXdl, p.NPerXdl),
	}
	inst.name = fmt.Sprintf("%s_%s_%s_%s_a%dv%d_b%dv%d_c%d_%s",
		family, types, layouts, p,
		p.AK1, p.ATransfer.SrcScalarPerVector,
		p.BK1, p.BTransfer.SrcScalarPerVector,
		p.Shuffle.ScalarPerVector, spec)
	return inst, nil
}

// Name is a descriptive identifier built from the instance parameters
func (i *Instance) Name() string { return i.name }

// Family is the kernel family the instance was declared in
func (i *Instance) Family() string { return i.family }

// Op is the operation kind
func (i *Instance) Op() OpKind { return i.op }

// Types returns the bound element types
func (i *Instance) Types() TypeSet { return i.types }

// Layouts returns the bound operand layouts
func (i *Instance) Layouts() LayoutSet { return i.layouts }

// Specialization returns the shape assumptions of the instance
func (i *Instance) Specialization() Specialization { return i.spec }

// Plan returns the validated tile plan. Callers must not modify it.
func (i *Instance) Plan() *TilePlan { return i.plan }

// Core is the compute core chosen for this host
func (i *Instance) Core() ComputeCore { return i.core }

// Key is the catalog lookup key
func (i *Instance) Key() Key { return KeyOf(i.op, i.types, i.layouts) }

func (i *Instance) String() string { return i.name }

// signature identifies an instance for duplicate detection
type signature struct {
	op      OpKind
	types   TypeSet
	layouts LayoutSet
	spec    Specialization
	plan    TilePlan
}

func (i *Instance) signature() signature {
	return signature{op: i.op, types: i.types, layouts: i.layouts, spec: i.spec, plan: *i.plan}
}

// Check reports why the instance cannot run d, or nil when it can. The
// descriptor is assumed valid.
func (i *Instance) Check(d *ProblemDescriptor) error {
	if d.Key() != i.Key() {
		return fmt.Errorf("key %s does not match %s", d.Key(), i.Key())
	}
	if i.op == OpGroupedConvBwdWeight {
		return i.checkConv(d)
	}
	return i.checkGemm(d)
}

// IsApplicable reports whether Check accepts d
func (i *Instance) IsApplicable(d *ProblemDescriptor) bool {
	return i.Check(d) == nil
}

func (i *Instance) checkGemm(d *ProblemDescriptor) error {
	p := i.plan
	if !i.spec.padsM() {
		if d.M%p.MPerBlock != 0 {
			return fmt.Errorf("M=%d not divisible by MPerBlock %d", d.M, p.MPerBlock)
		}
		if d.N%p.NPerBlock != 0 {
			return fmt.Errorf("N=%d not divisible by NPerBlock %d", d.N, p.NPerBlock)
		}
	}
	if !i.spec.padsK() {
		if d.K%(p.KPerBlock*d.KBatch) != 0 {
			return fmt.Errorf("K=%d not divisible by KPerBlock*KBatch %d", d.K, p.KPerBlock*d.KBatch)
		}
	}

	ops := d.gemmOperands()
	for _, v := range []struct {
		o   gemmOperand
		vec int
	}{
		{ops[0], p.ATransfer.SrcScalarPerVector},
		{ops[1], p.BTransfer.SrcScalarPerVector},
		{ops[2], p.Shuffle.ScalarPerVector},
	} {
		if err := checkVectorAccess(v.o, v.vec, d.Batch); err != nil {
			return err
		}
	}
	return nil
}

// checkVectorAccess requires every vector to start on a vector boundary:
// the contiguous extent, the leading stride and the batch stride must all
// be multiples of the vector width
func checkVectorAccess(o gemmOperand, vec, batch int) error {
	if vec <= 1 {
		return nil
	}
	if o.contiguous()%vec != 0 {
		return fmt.Errorf("%s contiguous extent %d not a multiple of vector width %d", o.name, o.contiguous(), vec)
	}
	if o.ld%vec != 0 {
		return fmt.Errorf("%s leading stride %d not a multiple of vector width %d", o.name, o.ld, vec)
	}
	if batch > 1 && o.batchStride%vec != 0 {
		return fmt.Errorf("%s batch stride %d not a multiple of vector width %d", o.name, o.batchStride, vec)
	}
	return nil
}

func (i *Instance) checkConv(d *ProblemDescriptor) error {
	p := i.plan
	c := d.Conv
	if i.spec == ConvBwdWeightFilter1x1Stride1Pad0 && !c.IsFilter1x1Stride1Pad0() {
		return fmt.Errorf("needs a 1x1 filter with unit stride, unit dilation and no padding")
	}
	// Output gradient reads vectors over K_out, input reads over C
	if c.OutChannels%p.ATransfer.SrcScalarPerVector != 0 {
		return fmt.Errorf("output channels %d not a multiple of vector width %d",
			c.OutChannels, p.ATransfer.SrcScalarPerVector)
	}
	if c.InChannels%p.BTransfer.SrcScalarPerVector != 0 {
		return fmt.Errorf("input channels %d not a multiple of vector width %d",
			c.InChannels, p.BTransfer.SrcScalarPerVector)
	}
	if d.N%p.Shuffle.ScalarPerVector != 0 {
		return fmt.Errorf("Y*X*C=%d not a multiple of store vector width %d", d.N, p.Shuffle.ScalarPerVector)
	}
	return nil
}
