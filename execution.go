package tilegemm

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// runGrid executes fn once for every block of grid. Blocks are independent:
// they run in any order and concurrently, with no ordering guarantee.
// Each worker owns a contiguous range of linear block indices so neighbouring
// tiles share cache. After the first failure (or cancellation of ctx) no new
// blocks start; blocks already running finish.
func runGrid(ctx context.Context, grid Dim3, workers int, fn func(Dim3) error) error {
	gridSize := grid.Size()
	if gridSize == 0 {
		return nil
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if gridSize < numWorkers {
		numWorkers = gridSize
	}
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	g, gctx := errgroup.WithContext(ctx)
	for workerID := 0; workerID < numWorkers; workerID++ {
		startBlock := workerID * blocksPerWorker
		endBlock := min(startBlock+blocksPerWorker, gridSize)

		g.Go(func() error {
			for blockID := startBlock; blockID < endBlock; blockID++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(linearTo3D(blockID, grid)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
