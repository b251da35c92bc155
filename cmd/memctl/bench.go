package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/logger"
)

var (
	benchStrategy    string
	benchSize        int
	benchOps         int
	benchSeed        uint64
	benchMinSize     int
	benchMaxSize     int
	benchObjectSize  int
	benchObjectAlign int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().StringVar(&benchStrategy, "strategy", strategyFreeList, "Allocator: linear, stack, growing, pool, freelist")
	cmd.Flags().IntVar(&benchSize, "size", 1<<20, "Arena size in bytes")
	cmd.Flags().IntVar(&benchOps, "ops", 100_000, "Number of operations")
	cmd.Flags().Uint64Var(&benchSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&benchMinSize, "min-size", 8, "Smallest request in bytes")
	cmd.Flags().IntVar(&benchMaxSize, "max-size", 256, "Largest request in bytes")
	cmd.Flags().IntVar(&benchObjectSize, "object-size", 64, "Pool slot size")
	cmd.Flags().IntVar(&benchObjectAlign, "object-align", 8, "Pool slot alignment")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a random allocation workload",
		Long: `The bench command drives one allocator with a seeded random mix of
allocations and frees shaped to what the strategy supports, then reports
throughput and the final state of the arena.

  linear    allocate until full, then clear
  stack     push and pop in LIFO order
  growing   push and pop over reserved memory, committing pages on demand
  pool      allocate and free fixed-size slots in random order
  freelist  allocate and free variable sizes in random order

Example:
  memctl bench --strategy freelist --size 65536 --ops 1000000
  memctl bench --strategy pool --object-size 48 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(benchConfig{
				arenaConfig: arenaConfig{
					Strategy:    benchStrategy,
					Size:        benchSize,
					ObjectSize:  benchObjectSize,
					ObjectAlign: benchObjectAlign,
				},
				Ops:     benchOps,
				Seed:    benchSeed,
				MinSize: benchMinSize,
				MaxSize: benchMaxSize,
			})
		},
	}
	return cmd
}

// benchConfig is a workload description.
type benchConfig struct {
	arenaConfig
	Ops     int
	Seed    uint64
	MinSize int
	MaxSize int
}

// benchResult is the JSON shape of memctl bench.
type benchResult struct {
	Ops       int           `json:"ops"`
	Allocs    int           `json:"allocs"`
	Frees     int           `json:"frees"`
	Clears    int           `json:"clears"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	OpsPerSec float64       `json:"ops_per_sec"`
	Arena     arenaReport   `json:"arena"`
}

func runBench(cfg benchConfig) error {
	if cfg.Ops < 0 {
		return fmt.Errorf("--ops must not be negative, got %d", cfg.Ops)
	}
	if cfg.MinSize < 0 || cfg.MaxSize < cfg.MinSize {
		return fmt.Errorf("invalid size range [%d, %d]", cfg.MinSize, cfg.MaxSize)
	}

	a, release, err := newAllocator(cfg.arenaConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("bench: release arena", "err", err)
		}
	}()

	printVerbose("Running %d ops against %s (%d bytes, seed %d)\n", cfg.Ops, cfg.Strategy, cfg.Size, cfg.Seed)

	res, err := runWorkload(a, cfg)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(res)
	}

	printInfo("\nWorkload:\n")
	printInfo("  Operations:   %d\n", res.Ops)
	printInfo("  Allocations:  %d\n", res.Allocs)
	printInfo("  Frees:        %d\n", res.Frees)
	printInfo("  Clears:       %d\n", res.Clears)
	printInfo("  Out of space: %d\n", res.Failed)
	printInfo("  Elapsed:      %v\n", res.Elapsed)
	printInfo("  Throughput:   %.0f ops/s\n", res.OpsPerSec)
	printArenaReport(res.Arena)
	return nil
}

// runWorkload performs cfg.Ops operations on a. Running out of space is part
// of the workload; any other allocator error aborts it.
func runWorkload(a alloc.Allocator, cfg benchConfig) (benchResult, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	live := make([]alloc.Ref, 0, 1024)
	var res benchResult

	lifo := cfg.Strategy == strategyStack || cfg.Strategy == strategyGrowing
	start := time.Now()

	for range cfg.Ops {
		res.Ops++

		size := cfg.MinSize + rng.IntN(cfg.MaxSize-cfg.MinSize+1)
		align := 1 << rng.IntN(5)
		if cfg.Strategy == strategyPool {
			size = min(size, cfg.ObjectSize)
			align = 0
		}

		free := cfg.Strategy != strategyLinear && len(live) > 0 && rng.IntN(2) == 0
		if free {
			idx := len(live) - 1
			if !lifo {
				idx = rng.IntN(len(live))
			}
			if err := a.Free(live[idx]); err != nil {
				return res, fmt.Errorf("op %d: free %d: %w", res.Ops, live[idx], err)
			}
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			res.Frees++
			continue
		}

		ref, _, err := a.Alloc(size, align)
		switch {
		case err == nil:
			live = append(live, ref)
			res.Allocs++
		case errors.Is(err, alloc.ErrNoSpace):
			res.Failed++
			n, err := drain(a, live, lifo)
			if err != nil {
				return res, fmt.Errorf("op %d: %w", res.Ops, err)
			}
			res.Frees += n
			live = live[:0]
			res.Clears++
		default:
			return res, fmt.Errorf("op %d: alloc %d/%d: %w", res.Ops, size, align, err)
		}
	}

	res.Elapsed = time.Since(start)
	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.OpsPerSec = float64(res.Ops) / secs
	}
	res.Arena = reportArena(cfg.Strategy, a)
	return res, nil
}

// drain releases everything in live, with Clear when the allocator has it
// and individual frees otherwise. It returns the number of frees issued.
func drain(a alloc.Allocator, live []alloc.Ref, lifo bool) (int, error) {
	if r, ok := a.(alloc.Resetter); ok {
		r.Clear()
		return 0, nil
	}
	for i := range live {
		ref := live[i]
		if lifo {
			ref = live[len(live)-1-i]
		}
		if err := a.Free(ref); err != nil {
			return i, fmt.Errorf("drain: free %d: %w", ref, err)
		}
	}
	return len(live), nil
}
