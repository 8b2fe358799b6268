package tilegemm

// stage is one staging buffer of the prefetch ring. Operands are held as
// K0 × (MN + pad) × K1 slabs in the compute type.
type stage[T accumulator] struct {
	a, b []T
}

// stageLayout resolves staging coordinates for one plan
type stageLayout struct {
	aRows, bRows int // MN rows per K0 slab including padding
	ak1, bk1     int
}

func newStageLayout(p *TilePlan) stageLayout {
	return stageLayout{
		aRows: p.MPerBlock + padRows(p.ATransfer),
		bRows: p.NPerBlock + padRows(p.BTransfer),
		ak1:   p.AK1,
		bk1:   p.BK1,
	}
}

func (l stageLayout) aIndex(k, m int) int {
	return ((k/l.ak1)*l.aRows+m)*l.ak1 + k%l.ak1
}

func (l stageLayout) bIndex(k, n int) int {
	return ((k/l.bk1)*l.bRows+n)*l.bk1 + k%l.bk1
}

func newStage[T accumulator](p *TilePlan) *stage[T] {
	l := newStageLayout(p)
	return &stage[T]{
		a: make([]T, p.KPerBlock*l.aRows),
		b: make([]T, p.KPerBlock*l.bRows),
	}
}

// Accumulators live in per-wave register order:
// [wave][mxdl][nxdl][MPerXdl][NPerXdl]
func accIndex(p *TilePlan, w, mx, nx, r, c int) int {
	return (((w*p.MXdlPerWave+mx)*p.NXdlPerWave+nx)*p.MPerXdl+r)*p.NPerXdl + c
}

// blockRow is the row inside the block tile of accumulator row r of
// subtile mx owned by wave w
func blockRow(p *TilePlan, w, mx, r int) int {
	wm := w / p.NWaves()
	return (mx*p.MWaves()+wm)*p.MPerXdl + r
}

func blockCol(p *TilePlan, w, nx, c int) int {
	wn := w % p.NWaves()
	return (nx*p.NWaves()+wn)*p.NPerXdl + c
}

// computeChunk runs every wave of the group over one staged K chunk. Both
// cores accumulate each output in ascending k, so they produce identical
// results and differ only in loop order.
func computeChunk[T accumulator](core ComputeCore, p *TilePlan, acc []T, st *stage[T]) {
	l := newStageLayout(p)
	for w := 0; w < p.Waves(); w++ {
		for mx := 0; mx < p.MXdlPerWave; mx++ {
			for nx := 0; nx < p.NXdlPerWave; nx++ {
				m0 := blockRow(p, w, mx, 0)
				n0 := blockCol(p, w, nx, 0)
				sub := acc[accIndex(p, w, mx, nx, 0, 0):][:p.MPerXdl*p.NPerXdl]
				if core == CoreXdl {
					xdlSubtile(p, l, sub, st, m0, n0)
				} else {
					dotSubtile(p, l, sub, st, m0, n0)
				}
			}
		}
	}
}

// xdlSubtile emulates one matrix instruction per k: the subtile receives
// the outer product of an MPerXdl column of A and an NPerXdl row of B
func xdlSubtile[T accumulator](p *TilePlan, l stageLayout, sub []T, st *stage[T], m0, n0 int) {
	a := make([]T, p.MPerXdl)
	b := make([]T, p.NPerXdl)
	for k := 0; k < p.KPerBlock; k++ {
		for r := range a {
			a[r] = st.a[l.aIndex(k, m0+r)]
		}
		for c := range b {
			b[c] = st.b[l.bIndex(k, n0+c)]
		}
		for r, av := range a {
			row := sub[r*p.NPerXdl:][:p.NPerXdl]
			for c, bv := range b {
				row[c] += av * bv
			}
		}
	}
}

// dotSubtile computes each subtile element as a dot product along k
func dotSubtile[T accumulator](p *TilePlan, l stageLayout, sub []T, st *stage[T], m0, n0 int) {
	for r := 0; r < p.MPerXdl; r++ {
		for c := 0; c < p.NPerXdl; c++ {
			s := sub[r*p.NPerXdl+c]
			for k := 0; k < p.KPerBlock; k++ {
				s += st.a[l.aIndex(k, m0+r)] * st.b[l.bIndex(k, n0+c)]
			}
			sub[r*p.NPerXdl+c] = s
		}
	}
}
