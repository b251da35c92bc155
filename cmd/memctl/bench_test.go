package main

import (
	"testing"
)

func testBenchConfig(strategy string) benchConfig {
	return benchConfig{
		arenaConfig: arenaConfig{
			Strategy:    strategy,
			Size:        64 << 10,
			ObjectSize:  64,
			ObjectAlign: 8,
		},
		Ops:     5000,
		Seed:    7,
		MinSize: 8,
		MaxSize: 512,
	}
}

func TestRunWorkload(t *testing.T) {
	for _, strategy := range strategyNames {
		t.Run(strategy, func(t *testing.T) {
			cfg := testBenchConfig(strategy)

			run := func() benchResult {
				a, release, err := newAllocator(cfg.arenaConfig)
				if err != nil {
					t.Fatalf("newAllocator() error = %v", err)
				}
				defer release()

				res, err := runWorkload(a, cfg)
				if err != nil {
					t.Fatalf("runWorkload() error = %v", err)
				}
				return res
			}

			res := run()
			if res.Ops != cfg.Ops {
				t.Errorf("Ops = %d, want %d", res.Ops, cfg.Ops)
			}
			if res.Allocs == 0 {
				t.Error("no allocations succeeded")
			}
			if strategy != strategyLinear && res.Frees == 0 {
				t.Error("no frees issued")
			}
			if strategy == strategyLinear && res.Clears == 0 {
				t.Error("linear arena never filled up")
			}
			if res.Arena.Usage > res.Arena.ArenaSize {
				t.Errorf("usage %d exceeds arena %d", res.Arena.Usage, res.Arena.ArenaSize)
			}

			// Same seed, same workload.
			again := run()
			if again.Allocs != res.Allocs || again.Frees != res.Frees || again.Failed != res.Failed {
				t.Errorf("workload not deterministic: %+v vs %+v", res, again)
			}
		})
	}
}

func TestBenchCommand(t *testing.T) {
	resetFlags()
	defer resetFlags()

	cfg := testBenchConfig(strategyFreeList)
	output, err := captureOutput(t, func() error { return runBench(cfg) })
	if err != nil {
		t.Fatalf("runBench() error = %v", err)
	}
	assertContains(t, output, []string{"Workload:", "Operations:   5,000", "Arena (freelist):", "Free blocks:"})

	jsonOut = true
	output, err = captureOutput(t, func() error { return runBench(cfg) })
	if err != nil {
		t.Fatalf("runBench() --json error = %v", err)
	}
	got := assertJSON(t, output)
	if got["ops"] != float64(5000) {
		t.Errorf("ops = %v, want 5000", got["ops"])
	}
}

func TestBenchCommand_BadConfig(t *testing.T) {
	resetFlags()
	defer resetFlags()

	tests := []struct {
		name string
		cfg  benchConfig
	}{
		{"unknown strategy", testBenchConfig("buddy")},
		{"zero size", func() benchConfig { c := testBenchConfig(strategyStack); c.Size = 0; return c }()},
		{"inverted range", func() benchConfig { c := testBenchConfig(strategyStack); c.MinSize = 10; c.MaxSize = 5; return c }()},
		{"bad pool alignment", func() benchConfig { c := testBenchConfig(strategyPool); c.ObjectAlign = 12; return c }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := captureOutput(t, func() error { return runBench(tt.cfg) }); err == nil {
				t.Error("runBench() succeeded, want error")
			}
		})
	}
}
