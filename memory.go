package tilegemm

import (
	"fmt"
	"sync"
	"unsafe"
)

// WorkspacePool hands out aligned scratch buffers for split-K launches and
// keeps released ones for reuse
type WorkspacePool struct {
	mu         sync.Mutex
	freeList   [][]byte
	totalAlloc int64
	peakAlloc  int64
}

// NewWorkspacePool creates an empty pool
func NewWorkspacePool() *WorkspacePool {
	return &WorkspacePool{}
}

// Get returns a workspace of at least size bytes, aligned to
// MemoryAlignment. Zero size returns nil.
func (wp *WorkspacePool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	wp.mu.Lock()
	defer wp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	// Try to reuse from free list
	for i, buf := range wp.freeList {
		if cap(buf) >= alignedSize {
			wp.freeList = append(wp.freeList[:i], wp.freeList[i+1:]...)
			wp.track(int64(cap(buf)))
			return buf[:size]
		}
	}

	buf := AllocWorkspace(alignedSize)
	wp.track(int64(alignedSize))
	return buf[:size]
}

// Put returns a workspace obtained from Get
func (wp *WorkspacePool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.freeList = append(wp.freeList, buf[:cap(buf)])
	wp.totalAlloc -= int64(cap(buf))
}

func (wp *WorkspacePool) track(n int64) {
	wp.totalAlloc += n
	if wp.totalAlloc > wp.peakAlloc {
		wp.peakAlloc = wp.totalAlloc
	}
}

// GetStats returns the bytes currently handed out and the peak
func (wp *WorkspacePool) GetStats() (allocated, peak int64) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.totalAlloc, wp.peakAlloc
}

// AllocWorkspace allocates size bytes aligned to MemoryAlignment
func AllocWorkspace(size int) []byte {
	if size <= 0 {
		return nil
	}
	raw := make([]byte, size+MemoryAlignment)
	shift := 0
	if rem := uintptr(unsafe.Pointer(&raw[0])) % MemoryAlignment; rem != 0 {
		shift = MemoryAlignment - int(rem)
	}
	return raw[shift : shift+size : shift+size]
}

// workspaceView reinterprets the first n elements of ws as the accumulation
// type. ws must be aligned to the element size.
func workspaceView[T accumulator](ws []byte, n int) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(ws) < n*size {
		return nil, NewWorkspaceError("Launch", n*size, len(ws))
	}
	if n == 0 {
		return nil, nil
	}
	if uintptr(unsafe.Pointer(&ws[0]))%uintptr(size) != 0 {
		return nil, NewExecutionError("Launch",
			fmt.Sprintf("workspace is not %d-byte aligned", size), nil)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&ws[0])), n), nil
}
