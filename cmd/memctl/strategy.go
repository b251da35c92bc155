package main

import (
	"fmt"
	"strings"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/vmem"
)

// Strategy names accepted by --strategy.
const (
	strategyLinear   = "linear"
	strategyStack    = "stack"
	strategyGrowing  = "growing"
	strategyPool     = "pool"
	strategyFreeList = "freelist"
)

var strategyNames = []string{
	strategyLinear, strategyStack, strategyGrowing, strategyPool, strategyFreeList,
}

// arenaConfig describes the allocator a command builds.
type arenaConfig struct {
	Strategy    string
	Size        int // arena or reservation size in bytes
	ObjectSize  int // pool slot size
	ObjectAlign int // pool slot alignment
}

// newAllocator builds the requested allocator over fresh page memory. The
// returned cleanup func gives that memory back.
func newAllocator(cfg arenaConfig) (alloc.Allocator, func() error, error) {
	if cfg.Size <= 0 {
		return nil, nil, fmt.Errorf("arena size must be positive, got %d", cfg.Size)
	}

	if cfg.Strategy == strategyGrowing {
		r, err := vmem.Reserve(cfg.Size)
		if err != nil {
			return nil, nil, err
		}
		gs, err := alloc.NewGrowingStack(r, vmem.PageSize())
		if err != nil {
			_ = r.Release()
			return nil, nil, err
		}
		return gs, r.Release, nil
	}

	mem, release, err := vmem.PageAlloc(cfg.Size)
	if err != nil {
		return nil, nil, err
	}
	mem = mem[:cfg.Size]

	var a alloc.Allocator
	switch cfg.Strategy {
	case strategyLinear:
		a = alloc.NewLinear(mem)
	case strategyStack:
		a = alloc.NewStack(mem)
	case strategyFreeList:
		a = alloc.NewFreeList(mem)
	case strategyPool:
		a, err = alloc.NewPool(cfg.ObjectSize, cfg.ObjectAlign, mem)
	default:
		err = fmt.Errorf("unknown strategy %q (want one of %s)", cfg.Strategy, strings.Join(strategyNames, ", "))
	}
	if err != nil {
		_ = release()
		return nil, nil, err
	}
	return a, release, nil
}

// arenaReport is the allocator state printed after bench and replay.
type arenaReport struct {
	Strategy    string `json:"strategy"`
	ArenaSize   int    `json:"arena_size"`
	Usage       int    `json:"usage"`
	Allocations int    `json:"allocations"`
	PeakUsage   int    `json:"peak_usage"`
	FreeBlocks  int    `json:"free_blocks,omitempty"`
	LargestFree int    `json:"largest_free,omitempty"`
	Committed   int    `json:"committed,omitempty"`
	FreeSlots   int    `json:"free_slots,omitempty"`
	Commits     int    `json:"commits,omitempty"`
	Splits      int    `json:"splits,omitempty"`
	Coalesces   int    `json:"coalesces,omitempty"`
}

// statser is implemented by every allocator in package alloc.
type statser interface {
	Stats() alloc.Stats
}

func reportArena(strategy string, a alloc.Allocator) arenaReport {
	rep := arenaReport{
		Strategy:    strategy,
		ArenaSize:   a.Size(),
		Usage:       a.MemoryUsage(),
		Allocations: a.AllocationCount(),
	}
	if s, ok := a.(statser); ok {
		st := s.Stats()
		rep.PeakUsage = st.PeakUsage
		rep.Commits = st.Commits
		rep.Splits = st.Splits
		rep.Coalesces = st.CoalesceForward + st.CoalesceBackward
	}
	switch v := a.(type) {
	case *alloc.FreeListAllocator:
		rep.FreeBlocks = len(v.FreeBlocks())
		rep.LargestFree = v.LargestFree()
	case *alloc.GrowingStackAllocator:
		rep.Committed = v.Committed()
	case *alloc.PoolAllocator:
		rep.FreeSlots = v.FreeSlots()
	}
	return rep
}

func printArenaReport(rep arenaReport) {
	printInfo("\nArena (%s):\n", rep.Strategy)
	printInfo("  Size:         %d bytes\n", rep.ArenaSize)
	printInfo("  Usage:        %d bytes (%.1f%%)\n", rep.Usage, percent(rep.Usage, rep.ArenaSize))
	printInfo("  Peak usage:   %d bytes\n", rep.PeakUsage)
	printInfo("  Allocations:  %d\n", rep.Allocations)
	switch rep.Strategy {
	case strategyFreeList:
		printInfo("  Free blocks:  %d (largest %d bytes)\n", rep.FreeBlocks, rep.LargestFree)
		printInfo("  Splits:       %d, coalesces: %d\n", rep.Splits, rep.Coalesces)
	case strategyGrowing:
		printInfo("  Committed:    %d bytes in %d commits\n", rep.Committed, rep.Commits)
	case strategyPool:
		printInfo("  Free slots:   %d\n", rep.FreeSlots)
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
