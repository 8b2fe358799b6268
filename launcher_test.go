package tilegemm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchMatchesReference(t *testing.T) {
	s := NewSelector(gemmCatalog(t, f32Types))
	l := NewLauncher()

	tests := []struct {
		m, n, k int
		spec    Specialization
	}{
		{32, 32, 32, GemmDefault},
		{64, 64, 64, GemmDefault},
		{128, 128, 64, GemmDefault},
		{96, 160, 96, GemmDefault},
		{100, 100, 64, GemmMNPadding},
		{33, 65, 97, GemmMNKPadding},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%dx%d", tt.m, tt.n, tt.k), func(t *testing.T) {
			d := NewGemm(tt.m, tt.n, tt.k, f32Types, nnLayouts)
			ops := NewOperands(d, uint64(tt.m*tt.n), -3, 3)

			plan := SelectOrFail(t, s, d)
			assert.Equal(t, tt.spec, plan.Instance.Specialization())
			LaunchOrFail(t, l, plan, ops)

			assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
		})
	}
}

func TestLaunchLeavesPaddingUntouched(t *testing.T) {
	d := NewGemm(100, 100, 64, f32Types, nnLayouts)
	d.C.Stride = 108
	ops := NewOperands(d, 1, -3, 3)

	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)
	assert.Equal(t, Dim3{X: 4, Y: 4, Z: 1}, plan.Grid)
	LaunchOrFail(t, NewLauncher(), plan, ops)

	assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
	for row := 0; row < d.M-1; row++ {
		for col := d.N; col < d.C.Stride; col++ {
			require.Equal(t, float64(Fill), ops.C.At(row*d.C.Stride+col), "row %d col %d", row, col)
		}
	}
}

func TestLaunchPartialShuffleCluster(t *testing.T) {
	p := smallPlan(4, 4, 4)
	p.Shuffle.ClusterLengths = [4]int{1, 8, 1, 4}
	c := NewCatalog()
	c.MustRegister(InstanceOrFail(t, "test_gemm", f32Types, nnLayouts, GemmMNPadding, p))

	d := NewGemm(70, 64, 64, f32Types, nnLayouts)
	ops := NewOperands(d, 4, -3, 3)
	LaunchOrFail(t, NewLauncher(), SelectOrFail(t, NewSelector(c), d), ops)

	assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
}

func TestLaunchKPadding(t *testing.T) {
	d := NewGemm(64, 64, 65, f32Types, nnLayouts)
	ops := NewOperands(d, 2, -3, 3)

	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)
	assert.Equal(t, GemmKPadding, plan.Instance.Specialization())
	LaunchOrFail(t, NewLauncher(), plan, ops)

	assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
}

func TestLaunchInt8Saturates(t *testing.T) {
	d := NewGemm(64, 64, 64, i8Types, nnLayouts)
	ops := NewOperands(d, 3, -8, 8)

	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, i8Types)), d)
	LaunchOrFail(t, NewLauncher(), plan, ops)

	want := wantOutput(d, ops)
	assert.Equal(t, want, Reference{}.Output(d, ops.C))
	assert.Contains(t, want, 127.0)
	assert.Contains(t, want, -128.0)
}

func TestLaunchSplitK(t *testing.T) {
	tests := []struct {
		name      string
		m, n, k   int
		kbatch    int
		spec      Specialization
		workspace int
	}{
		{"even", 64, 64, 256, 4, GemmDefault, 4 * 64 * 64 * 4},
		{"ragged", 64, 64, 100, 3, GemmKPadding, 3 * 64 * 64 * 4},
	}

	s := NewSelector(gemmCatalog(t, f32Types))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewGemm(tt.m, tt.n, tt.k, f32Types, nnLayouts)
			d.KBatch = tt.kbatch
			ops := NewOperands(d, 4, -3, 3)

			plan := SelectOrFail(t, s, d)
			assert.Equal(t, tt.spec, plan.Instance.Specialization())
			assert.Equal(t, tt.workspace, plan.WorkspaceSize)
			assert.Equal(t, tt.kbatch, plan.Grid.Z)
			LaunchOrFail(t, NewLauncher(), plan, ops)

			assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
		})
	}
}

func TestLaunchSplitKMatchesSinglePass(t *testing.T) {
	s := NewSelector(gemmCatalog(t, f32Types))

	single := NewGemm(64, 96, 128, f32Types, nnLayouts)
	split := NewGemm(64, 96, 128, f32Types, nnLayouts)
	split.KBatch = 2

	opsSingle := NewOperands(single, 5, -3, 3)
	opsSplit := NewOperands(split, 5, -3, 3)
	LaunchOrFail(t, NewLauncher(), SelectOrFail(t, s, single), opsSingle)
	LaunchOrFail(t, NewLauncher(), SelectOrFail(t, s, split), opsSplit)

	assert.Equal(t, Float64s(opsSingle.C), Float64s(opsSplit.C))
}

func TestLaunchWorkspaceErrors(t *testing.T) {
	d := NewGemm(64, 64, 256, f32Types, nnLayouts)
	d.KBatch = 4
	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)

	t.Run("insufficient", func(t *testing.T) {
		ops := NewOperands(d, 6, -3, 3)
		err := Launch(context.Background(), plan, ops, AllocWorkspace(plan.WorkspaceSize-1))
		require.Error(t, err)
		assert.True(t, IsWorkspaceError(err))
		assert.True(t, errors.Is(err, ErrWorkspaceInsufficient))

		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, plan.WorkspaceSize, e.Context)

		for _, v := range Float64s(ops.C) {
			require.Equal(t, float64(Fill), v)
		}
	})

	t.Run("misaligned", func(t *testing.T) {
		ops := NewOperands(d, 6, -3, 3)
		ws := AllocWorkspace(plan.WorkspaceSize + 1)[1:]
		err := Launch(context.Background(), plan, ops, ws)
		require.Error(t, err)
		assert.True(t, IsExecutionError(err))
	})
}

func TestComputeCoresAgree(t *testing.T) {
	d := NewGemm(64, 64, 96, f32Types, nnLayouts)
	inst := InstanceOrFail(t, "test_gemm", f32Types, nnLayouts, GemmDefault, smallPlan(4, 4, 4))

	results := make(map[ComputeCore][]float64)
	for _, core := range []ComputeCore{CoreDot, CoreXdl} {
		variant := *inst
		variant.core = core
		ops := NewOperands(d, 7, -3, 3)

		plan := newExecutionPlan(Candidate{Instance: &variant}, d)
		LaunchOrFail(t, NewLauncher(WithWorkers(3)), plan, ops)
		results[core] = Float64s(ops.C)
	}

	assert.Equal(t, results[CoreDot], results[CoreXdl])
}

type faultEpilogue struct{}

func (faultEpilogue) Name() string { return "fault" }
func (faultEpilogue) Arity() int { return 0 }
func (faultEpilogue) Apply(float64, ...float64) float64 {
	panic("epilogue exploded")
}

func TestLaunchEpilogueFault(t *testing.T) {
	d := NewGemm(64, 64, 32, f32Types, nnLayouts)
	d.Epilogue = faultEpilogue{}
	ops := NewOperands(d, 8, -3, 3)

	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)
	err := NewLauncher().Launch(context.Background(), plan, ops, nil)
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))
	assert.True(t, errors.Is(err, ErrExecution))
	assert.Contains(t, err.Error(), "epilogue fault")
	assert.Contains(t, err.Error(), "epilogue exploded")
}

func TestLaunchCanceled(t *testing.T) {
	d := NewGemm(64, 64, 64, f32Types, nnLayouts)
	ops := NewOperands(d, 9, -3, 3)
	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLauncher().Launch(ctx, plan, ops, nil)
	require.Error(t, err)
	assert.True(t, Canceled(err))
	assert.True(t, IsExecutionError(err))
}

func TestLaunchRejectsBadOperands(t *testing.T) {
	d := NewGemm(64, 64, 64, f32Types, nnLayouts)
	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)
	na, nb, nc := d.Footprint()

	tests := []struct {
		name   string
		plan   func() *ExecutionPlan
		mutate func(*Operands)
	}{
		{"nil plan", func() *ExecutionPlan { return nil }, nil},
		{"missing A", nil, func(o *Operands) { o.A = nil }},
		{"wrong B type", nil, func(o *Operands) { o.B = NewBuffer(F16, nb) }},
		{"short C", nil, func(o *Operands) { o.C = NewBuffer(F32, nc-1) }},
		{"short A", nil, func(o *Operands) { o.A = NewBuffer(F32, na/2) }},
		{"unexpected aux", nil, func(o *Operands) { o.Aux = []Buffer{NewBuffer(F32, 64)} }},
		{"instance cannot run problem", func() *ExecutionPlan {
			p := *plan
			p.Problem.M = 48
			return &p
		}, nil},
		{"invalid problem", func() *ExecutionPlan {
			p := *plan
			p.Problem.K = 0
			return &p
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := NewOperands(d, 10, -3, 3)
			if tt.mutate != nil {
				tt.mutate(&ops)
			}
			p := plan
			if tt.plan != nil {
				p = tt.plan()
			}
			err := NewLauncher().Launch(context.Background(), p, ops, nil)
			require.Error(t, err)
			assert.True(t, IsDescriptorError(err), "got %v", err)
		})
	}
}

func TestLaunchBatchedStrided(t *testing.T) {
	d := NewGemm(32, 32, 32, f32Types, nnLayouts)
	d.Batch = 3
	d.A.Stride, d.A.BatchStride = 36, 32*36+4
	d.B.Stride = 40
	d.C.BatchStride = 32*32 + 32
	ops := NewOperands(d, 11, -3, 3)

	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types)), d)
	assert.Equal(t, GemmDefault, plan.Instance.Specialization())
	assert.Equal(t, Dim3{X: 1, Y: 1, Z: 3}, plan.Grid)
	LaunchOrFail(t, NewLauncher(), plan, ops)

	assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
	for b := 0; b < d.Batch-1; b++ {
		for i := 32 * 32; i < d.C.BatchStride; i++ {
			require.Equal(t, float64(Fill), ops.C.At(b*d.C.BatchStride+i))
		}
	}
}

func TestLaunchEpilogues(t *testing.T) {
	tests := []struct {
		name     string
		epilogue Epilogue
		aux      []AuxDesc
		kbatch   int
	}{
		{"bias relu", BiasReLU{}, []AuxDesc{{Type: F32, Broadcast: AuxPerColumn}}, 1},
		{"bias relu split", BiasReLU{}, []AuxDesc{{Type: F32, Broadcast: AuxPerColumn}}, 2},
		{"bilinear", Bilinear{Alpha: 2, Beta: -1}, []AuxDesc{{Type: F32, Broadcast: AuxFull}}, 1},
		{"f16 row bias", BiasAdd{}, []AuxDesc{{Type: F16, Broadcast: AuxPerRow}}, 1},
		{"chain", NewChain(Scale{Alpha: 0.5}, BiasAdd{}, ReLU{}), []AuxDesc{{Type: F32, Broadcast: AuxPerRow}}, 1},
		{"two aux", NewChain(BiasAdd{}, Bilinear{Alpha: 1, Beta: 3}),
			[]AuxDesc{{Type: F32, Broadcast: AuxPerColumn}, {Type: BF16, Broadcast: AuxFull, Stride: 72}}, 1},
	}

	s := NewSelector(gemmCatalog(t, f32Types))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewGemm(64, 64, 64, f32Types, nnLayouts)
			d.Epilogue = tt.epilogue
			d.Aux = tt.aux
			d.KBatch = tt.kbatch
			ops := NewOperands(d, 12, -3, 3)

			LaunchOrFail(t, NewLauncher(), SelectOrFail(t, s, d), ops)
			assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
		})
	}
}

func TestLaunchColumnMajorOutput(t *testing.T) {
	layouts := LayoutSet{A: RowMajor, B: RowMajor, C: ColMajor}
	c := NewCatalog()
	c.MustRegister(InstanceOrFail(t, "test_gemm", f32Types, layouts, GemmMNKPadding, smallPlan(1, 1, 1)))

	d := NewGemm(40, 70, 50, f32Types, layouts)
	ops := NewOperands(d, 13, -3, 3)
	LaunchOrFail(t, NewLauncher(), SelectOrFail(t, NewSelector(c), d), ops)

	assert.Equal(t, wantOutput(d, ops), Reference{}.Output(d, ops.C))
}

func convCase(groups, batch, c, k, hw, yx, stride, pad, dil int) *ConvParams {
	return &ConvParams{
		Groups: groups, BatchSize: batch,
		InChannels: c, OutChannels: k,
		InHeight: hw, InWidth: hw,
		KernelHeight: yx, KernelWidth: yx,
		StrideH: stride, StrideW: stride,
		PadH: pad, PadW: pad,
		DilationH: dil, DilationW: dil,
	}
}

func TestLaunchConvBwdWeight(t *testing.T) {
	tests := []struct {
		name   string
		params *ConvParams
		spec   Specialization
	}{
		{"strided", convCase(2, 1, 4, 8, 5, 3, 2, 1, 1), ConvBwdWeightDefault},
		{"dilated", convCase(1, 2, 4, 4, 6, 3, 1, 2, 2), ConvBwdWeightDefault},
		{"pointwise", convCase(3, 2, 8, 4, 4, 1, 1, 0, 1), ConvBwdWeightFilter1x1Stride1Pad0},
		{"large reduction", convCase(1, 4, 4, 40, 8, 3, 1, 1, 1), ConvBwdWeightDefault},
	}

	s := NewSelector(convCatalog(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.params.LowerBwdWeight(F32, F32)
			require.NoError(t, err)
			ops := NewOperands(d, 14, -2, 2)

			plan := SelectOrFail(t, s, d)
			assert.Equal(t, tt.spec, plan.Instance.Specialization())
			assert.Equal(t, tt.params.Groups, plan.Grid.Z)
			LaunchOrFail(t, NewLauncher(), plan, ops)

			ref := Reference{}
			want := ref.Round(F32, ref.ConvBwdWeight(d.Conv, ops.A, ops.B))
			assert.Equal(t, want, Float64s(ops.C))
		})
	}
}

func TestLauncherLogsToConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	d := NewGemm(32, 32, 32, f32Types, nnLayouts)
	ops := NewOperands(d, 15, -3, 3)
	plan := SelectOrFail(t, NewSelector(gemmCatalog(t, f32Types), WithLogger(logger)), d)
	LaunchOrFail(t, NewLauncher(WithLogger(logger)), plan, ops)

	assert.Contains(t, buf.String(), "selected")
	assert.Contains(t, buf.String(), "msg=launch")
	assert.Contains(t, buf.String(), plan.Instance.Name())
}
