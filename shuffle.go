package tilegemm

// writeBack stores the block's accumulators through the C-shuffle tile.
// Each shuffle step gathers MXdlPerWavePerShuffle × NXdlPerWavePerShuffle
// subtiles of every wave into a row-major MPerShuffle × NPerShuffle tile,
// then the store cluster writes it out in ScalarPerVector runs along N.
// Nothing outside [0,M)×[0,N) is touched.
func (k *kernel[T]) writeBack(acc []T, batch, split, mBase, nBase int) {
	p := k.plan
	sh := p.Shuffle
	mps, nps := p.MPerShuffle(), p.NPerShuffle()
	tile := make([]T, mps*nps)
	auxVals := make([]float64, len(k.aux))

	cm, cn := sh.ClusterLengths[1], sh.ClusterLengths[3]
	rowsPerThread := mps / cm
	colsPerThread := nps / cn
	vec := sh.ScalarPerVector

	for sm := 0; sm < p.MXdlPerWave/sh.MXdlPerWavePerShuffle; sm++ {
		for sn := 0; sn < p.NXdlPerWave/sh.NXdlPerWavePerShuffle; sn++ {
			// Waves deposit their subtiles
			for w := 0; w < p.Waves(); w++ {
				wm, wn := w/p.NWaves(), w%p.NWaves()
				for mxs := 0; mxs < sh.MXdlPerWavePerShuffle; mxs++ {
					mx := sm*sh.MXdlPerWavePerShuffle + mxs
					for nxs := 0; nxs < sh.NXdlPerWavePerShuffle; nxs++ {
						nx := sn*sh.NXdlPerWavePerShuffle + nxs
						for r := 0; r < p.MPerXdl; r++ {
							i := (mxs*p.MWaves()+wm)*p.MPerXdl + r
							src := acc[accIndex(p, w, mx, nx, r, 0):][:p.NPerXdl]
							j := (nxs*p.NWaves() + wn) * p.NPerXdl
							copy(tile[i*nps+j:][:p.NPerXdl], src)
						}
					}
				}
			}

			// Store cluster reads the tile back in vector runs
			for tid := 0; tid < cm*cn; tid++ {
				tm, tn := tid/cn, tid%cn
				for ii := 0; ii < rowsPerThread; ii++ {
					i := tm*rowsPerThread + ii
					m := mBase + sm*mps + i
					if m >= k.desc.M {
						break
					}
					for v := 0; v < colsPerThread; v += vec {
						j := tn*colsPerThread + v
						n := nBase + sn*nps + j
						k.storeVector(tile[i*nps+j:][:vec], batch, split, m, n, auxVals)
					}
				}
			}
		}
	}
}

// storeVector writes one vector of values starting at (m, n), clipped at N
func (k *kernel[T]) storeVector(vals []T, batch, split, m, n int, auxVals []float64) {
	d := k.desc
	for e, v := range vals {
		col := n + e
		if col >= d.N {
			return
		}
		if k.partial != nil {
			k.partial[((split*d.Batch+batch)*d.M+m)*d.N+col] = v
			continue
		}
		for i, a := range k.aux {
			auxVals[i] = a.at(batch, m, col)
		}
		k.c.buf.Set(k.c.offset(batch, m, col), k.epi.Apply(float64(v), auxVals...))
	}
}
