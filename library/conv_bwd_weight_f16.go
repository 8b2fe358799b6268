package library

import (
	tg "github.com/LynnColeArt/tilegemm"
)

var convBwdWeightTypes = tg.TypeSet{A: tg.F16, B: tg.F16, C: tg.F16, Acc: tg.F32, CShuffle: tg.F32}

var convBwdWeightLayouts = tg.LayoutSet{A: tg.GNHWK, B: tg.GNHWC, C: tg.GKYXC}

// Both specializations share one set of tiles. The output gradient is read
// along K_out and the input along C, which are the M and N dimensions of
// the lowered problem.
var convBwdWeightRows = []convRow{
	// block, M/N per block, K0 per block, K1, xdl tile, xdl per wave, A, B, shuffle step, store cluster, store vector
	{256, 256, 128, 4, 8, 32, 32, 4, 2, transfer{[3]int{4, 32, 2}, mn, 8, 4, true}, transfer{[3]int{4, 16, 4}, mn, 8, 2, true}, 1, 1, [4]int{1, 32, 1, 8}, 8},
	{256, 128, 256, 4, 8, 32, 32, 2, 4, transfer{[3]int{4, 16, 4}, mn, 8, 2, true}, transfer{[3]int{4, 32, 2}, mn, 8, 4, true}, 1, 1, [4]int{1, 32, 1, 8}, 8},
	{128, 128, 128, 4, 8, 32, 32, 4, 2, transfer{[3]int{4, 16, 2}, mn, 8, 4, true}, transfer{[3]int{4, 16, 2}, mn, 8, 4, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{256, 128, 128, 4, 8, 32, 32, 2, 2, transfer{[3]int{4, 16, 4}, mn, 8, 2, true}, transfer{[3]int{4, 16, 4}, mn, 8, 2, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{128, 128, 64, 4, 8, 32, 32, 2, 2, transfer{[3]int{4, 16, 2}, mn, 8, 4, true}, transfer{[3]int{4, 8, 4}, mn, 8, 2, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{128, 64, 128, 4, 8, 32, 32, 2, 2, transfer{[3]int{4, 8, 4}, mn, 8, 2, true}, transfer{[3]int{4, 16, 2}, mn, 8, 4, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{64, 64, 64, 4, 8, 32, 32, 2, 2, transfer{[3]int{4, 8, 2}, mn, 8, 4, true}, transfer{[3]int{4, 8, 2}, mn, 8, 4, true}, 1, 1, [4]int{1, 16, 1, 4}, 8},
	{256, 128, 64, 4, 8, 32, 32, 2, 1, transfer{[3]int{4, 16, 4}, mn, 8, 2, true}, transfer{[3]int{4, 8, 8}, mn, 8, 1, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{256, 64, 128, 4, 8, 32, 32, 1, 2, transfer{[3]int{4, 8, 8}, mn, 8, 1, true}, transfer{[3]int{4, 16, 4}, mn, 8, 2, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{128, 128, 32, 4, 8, 32, 32, 2, 1, transfer{[3]int{4, 16, 2}, mn, 8, 4, true}, transfer{[3]int{4, 4, 8}, mn, 8, 1, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{128, 32, 128, 4, 8, 32, 32, 1, 2, transfer{[3]int{4, 4, 8}, mn, 8, 1, true}, transfer{[3]int{4, 16, 2}, mn, 8, 4, true}, 1, 1, [4]int{1, 32, 1, 4}, 8},
	{64, 64, 32, 4, 8, 32, 32, 2, 1, transfer{[3]int{4, 8, 2}, mn, 8, 4, true}, transfer{[3]int{4, 4, 4}, mn, 8, 2, true}, 1, 1, [4]int{1, 16, 1, 4}, 8},
	{64, 32, 64, 4, 8, 32, 32, 1, 2, transfer{[3]int{4, 4, 4}, mn, 8, 2, true}, transfer{[3]int{4, 8, 2}, mn, 8, 4, true}, 1, 1, [4]int{1, 16, 1, 4}, 8},
}

var convBwdWeightDefault = table{
	family:  "conv2d_bwd_weight_xdl_cshuffle",
	types:   convBwdWeightTypes,
	layouts: convBwdWeightLayouts,
	spec:    tg.ConvBwdWeightDefault,
	plans:   convPlans(convBwdWeightRows),
}

var convBwdWeight1x1 = table{
	family:  "conv2d_bwd_weight_xdl_cshuffle",
	types:   convBwdWeightTypes,
	layouts: convBwdWeightLayouts,
	spec:    tg.ConvBwdWeightFilter1x1Stride1Pad0,
	plans:   convPlans(convBwdWeightRows),
}
