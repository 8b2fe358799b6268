package library

import (
	tg "github.com/LynnColeArt/tilegemm"
)

const (
	mn = tg.VectorDimMN
	k1 = tg.VectorDimK1
)

// int8 GEMM with A stored K × M and B stored N × K (both column major),
// C row major, exact int32 accumulation
var gemmI8KmNkMn = table{
	family:  "gemm_xdl_cshuffle",
	types:   tg.TypeSet{A: tg.I8, B: tg.I8, C: tg.I8, Acc: tg.I32, CShuffle: tg.I32},
	layouts: tg.LayoutSet{A: tg.ColMajor, B: tg.ColMajor, C: tg.RowMajor},
	spec:    tg.GemmDefault,
	plans: gemmPlans([]gemmRow{
		// block, M/N/K per block, AK1, BK1, xdl tile, xdl per wave, A, B, shuffle step, store cluster, store vector
		{256, 256, 128, 64, 4, 16, 32, 32, 4, 2, transfer{[3]int{4, 64, 1}, mn, 4, 4, false}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 256, 128, 64, 16, 16, 32, 32, 4, 2, transfer{[3]int{4, 64, 1}, mn, 4, 16, true}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 128, 256, 64, 4, 16, 32, 32, 2, 4, transfer{[3]int{8, 32, 1}, mn, 4, 4, false}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 128, 256, 64, 16, 16, 32, 32, 2, 4, transfer{[3]int{4, 64, 1}, mn, 2, 16, true}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{128, 128, 128, 64, 4, 16, 32, 32, 4, 2, transfer{[3]int{4, 32, 1}, mn, 4, 4, false}, transfer{[3]int{4, 32, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 32, 1, 4}, 16},
		{128, 128, 128, 64, 16, 16, 32, 32, 4, 2, transfer{[3]int{4, 32, 1}, mn, 4, 16, true}, transfer{[3]int{4, 32, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 32, 1, 4}, 16},
		{256, 128, 128, 64, 4, 16, 32, 32, 2, 2, transfer{[3]int{8, 32, 1}, mn, 4, 4, false}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 128, 128, 64, 16, 16, 32, 32, 2, 2, transfer{[3]int{4, 64, 1}, mn, 2, 16, true}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{128, 128, 64, 64, 4, 16, 32, 32, 2, 2, transfer{[3]int{4, 32, 1}, mn, 4, 4, false}, transfer{[3]int{4, 32, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 2}, 16},
		{128, 128, 64, 64, 16, 16, 32, 32, 2, 2, transfer{[3]int{4, 32, 1}, mn, 4, 16, true}, transfer{[3]int{4, 32, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 2}, 16},
		{128, 64, 128, 64, 4, 16, 32, 32, 2, 2, transfer{[3]int{8, 16, 1}, mn, 4, 4, false}, transfer{[3]int{4, 32, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 32, 1, 4}, 16},
		{128, 64, 128, 64, 16, 16, 32, 32, 2, 2, transfer{[3]int{4, 32, 1}, mn, 2, 16, true}, transfer{[3]int{4, 32, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 32, 1, 4}, 16},
		{256, 128, 64, 64, 4, 16, 32, 32, 2, 1, transfer{[3]int{8, 32, 1}, mn, 4, 4, false}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 128, 64, 64, 16, 16, 32, 32, 2, 1, transfer{[3]int{4, 64, 1}, mn, 2, 16, true}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 64, 128, 64, 4, 16, 32, 32, 1, 2, transfer{[3]int{16, 16, 1}, mn, 4, 4, false}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
		{256, 64, 128, 64, 16, 16, 32, 32, 1, 2, transfer{[3]int{4, 64, 1}, mn, 1, 16, true}, transfer{[3]int{4, 64, 1}, k1, 16, 16, true}, 1, 1, [4]int{1, 64, 1, 4}, 16},
	}),
}
