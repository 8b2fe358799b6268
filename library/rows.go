package library

import (
	tg "github.com/LynnColeArt/tilegemm"
)

// Every table row prefetches one chunk ahead, so two staging buffers are in
// flight per group.
const prefetchStages = 2

// transfer is one operand's block-transfer columns: thread cluster over
// K0 × MN × K1, source vector dimension and width, staging vector width and
// the extra padding row
type transfer struct {
	cluster [3]int
	vecDim  int
	srcVec  int
	dstVec  int
	extra   bool
}

func (t transfer) desc() tg.TransferDesc {
	return tg.TransferDesc{
		ClusterLengths:       t.cluster,
		SrcVectorDim:         t.vecDim,
		SrcScalarPerVector:   t.srcVec,
		DstScalarPerVectorK1: t.dstVec,
		LdsAddExtra:          t.extra,
	}
}

// gemmRow mirrors one line of a GEMM instance table
type gemmRow struct {
	block                      int
	mPerBlock, nPerBlock, kPer int
	ak1, bk1                   int
	mPerXdl, nPerXdl           int
	mXdl, nXdl                 int
	a, b                       transfer
	shuffleM, shuffleN         int
	cCluster                   [4]int
	cVec                       int
}

func (r gemmRow) plan() tg.TilePlan {
	return tg.TilePlan{
		BlockSize:   r.block,
		MPerBlock:   r.mPerBlock,
		NPerBlock:   r.nPerBlock,
		KPerBlock:   r.kPer,
		AK1:         r.ak1,
		BK1:         r.bk1,
		MPerXdl:     r.mPerXdl,
		NPerXdl:     r.nPerXdl,
		MXdlPerWave: r.mXdl,
		NXdlPerWave: r.nXdl,
		ATransfer:   r.a.desc(),
		BTransfer:   r.b.desc(),
		Shuffle: tg.ShuffleDesc{
			MXdlPerWavePerShuffle: r.shuffleM,
			NXdlPerWavePerShuffle: r.shuffleN,
			ClusterLengths:        r.cCluster,
			ScalarPerVector:       r.cVec,
		},
		PrefetchStages: prefetchStages,
	}
}

// convRow mirrors one line of a backward-weight instance table. K is split
// as K0PerBlock × K1 and the clusters carry a leading k-batch length of 1,
// already dropped here.
type convRow struct {
	block                int
	mPerBlock, nPerBlock int
	k0PerBlock, k1       int
	mPerXdl, nPerXdl     int
	mXdl, nXdl           int
	a, b                 transfer
	shuffleM, shuffleN   int
	cCluster             [4]int
	cVec                 int
}

func (r convRow) plan() tg.TilePlan {
	return gemmRow{
		block:     r.block,
		mPerBlock: r.mPerBlock, nPerBlock: r.nPerBlock, kPer: r.k0PerBlock * r.k1,
		ak1: r.k1, bk1: r.k1,
		mPerXdl: r.mPerXdl, nPerXdl: r.nPerXdl,
		mXdl: r.mXdl, nXdl: r.nXdl,
		a: r.a, b: r.b,
		shuffleM: r.shuffleM, shuffleN: r.shuffleN,
		cCluster: r.cCluster,
		cVec:     r.cVec,
	}.plan()
}

// table is a family of rows sharing types, layouts and a specialization
type table struct {
	family  string
	types   tg.TypeSet
	layouts tg.LayoutSet
	spec    tg.Specialization
	plans   []tg.TilePlan
}

func gemmPlans(rows []gemmRow) []tg.TilePlan {
	out := make([]tg.TilePlan, len(rows))
	for i, r := range rows {
		out[i] = r.plan()
	}
	return out
}

func convPlans(rows []convRow) []tg.TilePlan {
	out := make([]tg.TilePlan, len(rows))
	for i, r := range rows {
		out[i] = r.plan()
	}
	return out
}

// register validates every row of t into c. A row that does not validate
// is a defect in the table.
func (t table) register(c *tg.Catalog) {
	for _, p := range t.plans {
		inst, err := tg.NewInstance(t.family, t.types, t.layouts, t.spec, p)
		if err != nil {
			panic(err)
		}
		c.MustRegister(inst)
	}
}
