package library

import (
	tg "github.com/LynnColeArt/tilegemm"
)

// Single-precision and bfloat16 tiles for general shapes. Padding
// specializations trade vector width for shape coverage: K padding reads A
// one element at a time along K, full padding drops every vector.

func nnRows(av, bv, cv int) []gemmRow {
	return []gemmRow{
		{256, 128, 128, 32, 4, 4, 32, 32, 2, 2, transfer{[3]int{8, 32, 1}, k1, av, 4, false}, transfer{[3]int{8, 32, 1}, mn, bv, 4, false}, 1, 1, [4]int{1, 32, 1, 8}, cv},
		{64, 32, 32, 32, 4, 4, 32, 32, 1, 1, transfer{[3]int{8, 8, 1}, k1, av, 4, false}, transfer{[3]int{8, 8, 1}, mn, bv, 4, false}, 1, 1, [4]int{1, 16, 1, 4}, cv},
	}
}

func tnRows(av, bv, cv int) []gemmRow {
	return []gemmRow{
		{256, 128, 128, 32, 4, 4, 32, 32, 2, 2, transfer{[3]int{8, 32, 1}, k1, av, 4, false}, transfer{[3]int{8, 32, 1}, k1, bv, 4, false}, 1, 1, [4]int{1, 32, 1, 8}, cv},
		{64, 32, 32, 32, 4, 4, 32, 32, 1, 1, transfer{[3]int{8, 8, 1}, k1, av, 4, false}, transfer{[3]int{8, 8, 1}, k1, bv, 4, false}, 1, 1, [4]int{1, 16, 1, 4}, cv},
	}
}

var (
	f32Types  = tg.TypeSet{A: tg.F32, B: tg.F32, C: tg.F32, Acc: tg.F32, CShuffle: tg.F32}
	bf16Types = tg.TypeSet{A: tg.BF16, B: tg.BF16, C: tg.BF16, Acc: tg.F32, CShuffle: tg.BF16}

	nnLayouts = tg.LayoutSet{A: tg.RowMajor, B: tg.RowMajor, C: tg.RowMajor}
	tnLayouts = tg.LayoutSet{A: tg.RowMajor, B: tg.ColMajor, C: tg.RowMajor}
)

var gemmF32Tables = []table{
	{family: "gemm_xdl_cshuffle", types: f32Types, layouts: nnLayouts, spec: tg.GemmDefault, plans: gemmPlans(nnRows(4, 4, 4))},
	{family: "gemm_xdl_cshuffle", types: f32Types, layouts: nnLayouts, spec: tg.GemmKPadding, plans: gemmPlans(nnRows(1, 4, 4))},
	{family: "gemm_xdl_cshuffle", types: f32Types, layouts: nnLayouts, spec: tg.GemmMNPadding, plans: gemmPlans(nnRows(4, 4, 4))},
	{family: "gemm_xdl_cshuffle", types: f32Types, layouts: nnLayouts, spec: tg.GemmMNKPadding, plans: gemmPlans(nnRows(1, 1, 1))},

	{family: "gemm_xdl_cshuffle", types: f32Types, layouts: tnLayouts, spec: tg.GemmDefault, plans: gemmPlans(tnRows(4, 4, 4))},
	{family: "gemm_xdl_cshuffle", types: f32Types, layouts: tnLayouts, spec: tg.GemmMNKPadding, plans: gemmPlans(tnRows(1, 1, 1))},

	{family: "gemm_xdl_cshuffle", types: bf16Types, layouts: nnLayouts, spec: tg.GemmDefault, plans: gemmPlans(nnRows(4, 4, 4))},
	{family: "gemm_xdl_cshuffle", types: bf16Types, layouts: nnLayouts, spec: tg.GemmMNKPadding, plans: gemmPlans(nnRows(1, 1, 1))},
}
