package tilegemm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// kernel is one bound launch: an instance, a problem and its operands.
// It is read-only while tiles run; every tile allocates its own staging
// ring and accumulators.
type kernel[T accumulator] struct {
	plan   *TilePlan
	core   ComputeCore
	desc   *ProblemDescriptor
	a, b   *operandView
	c      *outputView
	aux    []auxView
	epi    Epilogue
	layout stageLayout

	// Split-K partial sums, [kbatch][batch][M][N]; nil without split-K
	partial   []T
	kPerSplit int
}

func newKernel[T accumulator](inst *Instance, d *ProblemDescriptor, ops Operands, partial []T) *kernel[T] {
	av, bv, cv := d.operandViews(ops.A, ops.B, ops.C)
	k := &kernel[T]{
		plan:    inst.plan,
		core:    inst.core,
		desc:    d,
		a:       av,
		b:       bv,
		c:       cv,
		epi:     epilogueOrDefault(d.Epilogue),
		layout:  newStageLayout(inst.plan),
		partial: partial,
	}
	for i := range d.Aux {
		k.aux = append(k.aux, d.auxView(i, ops.Aux[i]))
	}
	k.kPerSplit = splitLength(d.K, d.KBatch, inst.plan.KPerBlock)
	return k
}

// splitLength is the K extent of one split, rounded up to whole chunks
func splitLength(k, kbatch, kPerBlock int) int {
	return ceilDiv(ceilDiv(k, kbatch), kPerBlock) * kPerBlock
}

// runTile executes the staged pipeline for the group at idx. A transfer
// goroutine fills free staging buffers and hands each complete chunk to the
// compute loop over the ready channel; receiving from it is the group
// barrier, so compute never observes a partially transferred chunk.
// Returning a buffer to the free ring rotates it back to the producer while
// compute moves on, which overlaps transfer of chunk i+1 with compute of
// chunk i.
func (k *kernel[T]) runTile(idx Dim3) error {
	p := k.plan
	d := k.desc
	batch := idx.Z % d.Batch
	split := idx.Z / d.Batch
	mBase := idx.X * p.MPerBlock
	nBase := idx.Y * p.NPerBlock

	kBegin := split * k.kPerSplit
	kEnd := min(d.K, kBegin+k.kPerSplit)
	chunks := 0
	if kEnd > kBegin {
		chunks = ceilDiv(kEnd-kBegin, p.KPerBlock)
	}

	// Views clipped to this split's K range
	av, bv := *k.a, *k.b
	av.k, bv.k = kEnd, kEnd

	acc := make([]T, p.MPerBlock*p.NPerBlock)

	free := make(chan *stage[T], p.PrefetchStages)
	ready := make(chan *stage[T], p.PrefetchStages)
	for i := 0; i < p.PrefetchStages; i++ {
		free <- newStage[T](p)
	}

	// The group context only aborts the sibling goroutine after a fault;
	// callers cannot cancel a tile once it has started.
	g, gctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		defer close(ready)
		return guard("transfer", idx, func() error {
			for c := 0; c < chunks; c++ {
				var st *stage[T]
				select {
				case st = <-free:
				case <-gctx.Done():
					return nil
				}
				kBase := kBegin + c*p.KPerBlock
				transferOperand(st.a, &av, p.ATransfer, p.BlockSize, p.KPerBlock, p.AK1,
					p.MPerBlock, k.layout.aRows, batch, mBase, kBase)
				transferOperand(st.b, &bv, p.BTransfer, p.BlockSize, p.KPerBlock, p.BK1,
					p.NPerBlock, k.layout.bRows, batch, nBase, kBase)
				ready <- st
			}
			return nil
		})
	})

	g.Go(func() error {
		return guard("compute", idx, func() error {
			for st := range ready {
				computeChunk(k.core, p, acc, st)
				free <- st
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return guard("epilogue", idx, func() error {
		k.writeBack(acc, batch, split, mBase, nBase)
		return nil
	})
}

// guard converts a panic inside a tile phase into an execution error that
// names the block
func guard(phase string, idx Dim3, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewExecutionError("Launch",
				fmt.Sprintf("%s fault in block (%d,%d,%d)", phase, idx.X, idx.Y, idx.Z),
				fmt.Errorf("%v", r))
		}
	}()
	return fn()
}
