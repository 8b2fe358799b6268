package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	tg "github.com/LynnColeArt/tilegemm"
)

// problemFlags describes one problem on the command line. GEMM problems use
// the shape flags; convolutions use the conv flags and are lowered.
type problemFlags struct {
	op      string
	types   string
	layouts string

	m, n, k int
	batch   int
	kbatch  int

	epilogue string
	alpha    float64

	conv tg.ConvParams
}

func (f *problemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.op, "op", "gemm", "operation: gemm or grouped_conv2d_bwd_weight")
	fs.StringVar(&f.types, "types", "f32,f32,f32", "A,B,C element types")
	fs.StringVar(&f.layouts, "layouts", "row,row,row", "A,B,C layouts (gemm only)")

	fs.IntVarP(&f.m, "m", "m", 256, "rows of C")
	fs.IntVarP(&f.n, "n", "n", 256, "columns of C")
	fs.IntVarP(&f.k, "k", "k", 256, "reduction length")
	fs.IntVar(&f.batch, "batch", 1, "independent problems")
	fs.IntVar(&f.kbatch, "kbatch", 1, "split the reduction across this many groups")

	fs.StringVar(&f.epilogue, "epilogue", "pass_through", "pass_through, relu, gelu, sigmoid, bias_add or bias_relu")
	fs.Float64Var(&f.alpha, "alpha", 1, "scale applied before the epilogue")

	fs.IntVar(&f.conv.Groups, "groups", 1, "convolution groups")
	fs.IntVar(&f.conv.BatchSize, "images", 1, "convolution batch size")
	fs.IntVar(&f.conv.InChannels, "in-channels", 64, "input channels per group")
	fs.IntVar(&f.conv.OutChannels, "out-channels", 64, "output channels per group")
	fs.IntVar(&f.conv.InHeight, "in-h", 28, "input height")
	fs.IntVar(&f.conv.InWidth, "in-w", 28, "input width")
	fs.IntVar(&f.conv.KernelHeight, "filter-h", 3, "filter height")
	fs.IntVar(&f.conv.KernelWidth, "filter-w", 3, "filter width")
	fs.IntVar(&f.conv.StrideH, "stride", 1, "stride in both dimensions")
	fs.IntVar(&f.conv.PadH, "pad", 1, "padding in both dimensions")
	fs.IntVar(&f.conv.DilationH, "dilation", 1, "dilation in both dimensions")
}

func (f *problemFlags) descriptor() (*tg.ProblemDescriptor, error) {
	op, err := tg.ParseOpKind(f.op)
	if err != nil {
		return nil, err
	}
	types, err := parseTypes(f.types)
	if err != nil {
		return nil, err
	}

	var d *tg.ProblemDescriptor
	switch op {
	case tg.OpGemm:
		layouts, err := parseLayouts(f.layouts)
		if err != nil {
			return nil, err
		}
		d = tg.NewGemm(f.m, f.n, f.k, types, layouts)
		d.Batch = f.batch
	case tg.OpGroupedConvBwdWeight:
		p := f.conv
		p.StrideW, p.PadW, p.DilationW = p.StrideH, p.PadH, p.DilationH
		if d, err = p.LowerBwdWeight(types.A, types.C); err != nil {
			return nil, err
		}
	}
	d.KBatch = f.kbatch

	if err := f.applyEpilogue(d); err != nil {
		return nil, err
	}
	return d, d.Validate()
}

func (f *problemFlags) applyEpilogue(d *tg.ProblemDescriptor) error {
	var epi tg.Epilogue
	switch f.epilogue {
	case "pass_through", "":
	case "relu":
		epi = tg.ReLU{}
	case "gelu":
		epi = tg.GELU{}
	case "sigmoid":
		epi = tg.Sigmoid{}
	case "bias_add":
		epi = tg.BiasAdd{}
	case "bias_relu":
		epi = tg.BiasReLU{}
	default:
		return fmt.Errorf("unknown epilogue %q", f.epilogue)
	}

	if f.alpha != 1 {
		d.Epilogue = tg.NewChain(tg.Scale{Alpha: f.alpha}, epi)
	} else if epi != nil {
		d.Epilogue = epi
	}
	if epi != nil && epi.Arity() > 0 {
		d.Aux = []tg.AuxDesc{{Type: d.C.Type, Broadcast: tg.AuxPerColumn}}
	}
	return nil
}

func parseTypes(s string) (tg.TypeSet, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return tg.TypeSet{}, fmt.Errorf("--types wants A,B,C, got %q", s)
	}
	var dt [3]tg.DataType
	for i, p := range parts {
		t, err := tg.ParseDataType(strings.TrimSpace(p))
		if err != nil {
			return tg.TypeSet{}, err
		}
		dt[i] = t
	}
	return tg.TypeSet{A: dt[0], B: dt[1], C: dt[2]}, nil
}

func parseLayouts(s string) (tg.LayoutSet, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return tg.LayoutSet{}, fmt.Errorf("--layouts wants A,B,C, got %q", s)
	}
	var l [3]tg.Layout
	for i, p := range parts {
		v, err := tg.ParseLayout(strings.TrimSpace(p))
		if err != nil {
			return tg.LayoutSet{}, err
		}
		l[i] = v
	}
	return tg.LayoutSet{A: l[0], B: l[1], C: l[2]}, nil
}
