// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tilegemm provides tiled tensor-contraction kernels (GEMM and
// convolution lowered to GEMM) on GUDA's CPU execution model, together with
// a catalog of hand-authored tiling instances and a selector that picks one
// for a runtime problem.
//
// A problem is described by a ProblemDescriptor. The Selector filters the
// Catalog down to instances whose types and layouts match and whose
// specialization accepts the shape, and returns an ExecutionPlan. The
// Launcher then runs one thread group per output tile; every group streams
// K-chunks through multi-buffered staging memory, accumulates with the
// instance's compute core, and writes the epilogue result back with
// clipping against the true problem bounds.
//
// Example usage:
//
//	desc := &tilegemm.ProblemDescriptor{
//		Op: tilegemm.OpGemm,
//		M:  512, N: 512, K: 256,
//		A:  tilegemm.OperandDesc{Type: tilegemm.F16, Layout: tilegemm.RowMajor, Stride: 256},
//		B:  tilegemm.OperandDesc{Type: tilegemm.F16, Layout: tilegemm.ColMajor, Stride: 256},
//		C:  tilegemm.OperandDesc{Type: tilegemm.F16, Layout: tilegemm.RowMajor, Stride: 512},
//	}
//	plan, err := library.Select(desc)
//	if err != nil {
//		return err
//	}
//	err = tilegemm.Launch(ctx, plan, tilegemm.Operands{A: a, B: b, C: c}, nil)
//
// The instance tables live in the library subpackage.
package tilegemm
