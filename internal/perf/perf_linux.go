//go:build linux

package perf

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type event struct {
	name   string
	typ    uint32
	config uint64
	dst    func(*Counters) *uint64
}

func cacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

var events = []event{
	{"cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES, func(c *Counters) *uint64 { return &c.Cycles }},
	{"instructions", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS, func(c *Counters) *uint64 { return &c.Instructions }},
	{"branch-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES, func(c *Counters) *uint64 { return &c.BranchMisses }},
	{"cache-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES, func(c *Counters) *uint64 { return &c.CacheMisses }},
	{"l1d-misses", unix.PERF_TYPE_HW_CACHE,
		cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(c *Counters) *uint64 { return &c.L1DMisses }},
	{"llc-misses", unix.PERF_TYPE_HW_CACHE,
		cacheConfig(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(c *Counters) *uint64 { return &c.LLCMisses }},
}

// Monitor owns one perf_event file descriptor per counter. Counting covers
// the calling process, user space only, and threads it creates after Start.
type Monitor struct {
	fds []int
}

// NewMonitor returns an idle monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start opens and enables every counter. On failure nothing stays open.
func (m *Monitor) Start() error {
	m.close()
	for _, ev := range events {
		attr := unix.PerfEventAttr{
			Type:   ev.typ,
			Config: ev.config,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Bits:   unix.PerfBitDisabled | unix.PerfBitInherit | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			m.close()
			return fmt.Errorf("open %s counter: %w", ev.name, err)
		}
		m.fds = append(m.fds, fd)
	}
	for _, fd := range m.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			m.close()
			return err
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			m.close()
			return err
		}
	}
	return nil
}

// Stop disables and reads every counter and closes the descriptors
func (m *Monitor) Stop() Counters {
	c := Counters{Hardware: len(m.fds) == len(events)}
	for i, fd := range m.fds {
		_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
		var buf [8]byte
		if n, err := unix.Read(fd, buf[:]); err == nil && n == len(buf) {
			*events[i].dst(&c) = binary.NativeEndian.Uint64(buf[:])
		}
	}
	m.close()
	return c
}

func (m *Monitor) close() {
	for _, fd := range m.fds {
		unix.Close(fd)
	}
	m.fds = nil
}
