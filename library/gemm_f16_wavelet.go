package library

import (
	tg "github.com/LynnColeArt/tilegemm"
)

// Half-precision GEMM with A row major and B column major, so both operands
// are read along K. The wavelet variants split load and math waves on real
// hardware; here both roles share one 256-thread group.
var gemmF16WaveletTN = table{
	family:  "gemm_wavelet_cshuffle",
	types:   tg.TypeSet{A: tg.F16, B: tg.F16, C: tg.F16, Acc: tg.F32, CShuffle: tg.F16},
	layouts: tg.LayoutSet{A: tg.RowMajor, B: tg.ColMajor, C: tg.RowMajor},
	spec:    tg.GemmDefault,
	plans: gemmPlans([]gemmRow{
		{256, 256, 256, 32, 8, 8, 32, 32, 4, 4, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, 1, 1, [4]int{1, 32, 1, 8}, 8},
		{256, 256, 128, 32, 8, 8, 32, 32, 4, 2, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, 1, 1, [4]int{1, 32, 1, 8}, 8},
		{256, 128, 128, 32, 8, 8, 32, 32, 2, 2, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, 1, 1, [4]int{1, 32, 1, 8}, 8},
		{256, 128, 64, 32, 8, 8, 32, 32, 2, 1, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, transfer{[3]int{4, 64, 1}, k1, 8, 8, true}, 1, 1, [4]int{1, 32, 1, 8}, 8},
	}),
}
