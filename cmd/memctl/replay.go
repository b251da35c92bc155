package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/internal/replay"
)

var (
	replayStrategy    string
	replaySize        int
	replayObjectSize  int
	replayObjectAlign int
	replayContinue    bool
	replayVerify      bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().StringVar(&replayStrategy, "strategy", strategyFreeList, "Allocator: linear, stack, growing, pool, freelist")
	cmd.Flags().IntVar(&replaySize, "size", 1<<20, "Arena size in bytes")
	cmd.Flags().IntVar(&replayObjectSize, "object-size", 64, "Pool slot size")
	cmd.Flags().IntVar(&replayObjectAlign, "object-align", 8, "Pool slot alignment")
	cmd.Flags().BoolVar(&replayContinue, "continue", false, "Keep going after a failing operation")
	cmd.Flags().BoolVar(&replayVerify, "verify", true, "Fill payloads and check them before each free")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace",
		Long: `The replay command runs a recorded allocation trace against one
allocator. A trace has one operation per line:

  alloc <id> <size> [align]
  free <id>
  clear

Lines starting with # are comments.

Example:
  memctl replay session.trace --strategy freelist --size 65536
  memctl replay session.trace --strategy stack --continue --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// replayOutput is the JSON shape of memctl replay.
type replayOutput struct {
	Trace          string      `json:"trace"`
	Ops            int         `json:"ops"`
	Allocs         int         `json:"allocs"`
	Frees          int         `json:"frees"`
	Clears         int         `json:"clears"`
	Failed         int         `json:"failed"`
	BytesRequested int         `json:"bytes_requested"`
	Live           int         `json:"live"`
	Errors         []string    `json:"errors,omitempty"`
	Arena          arenaReport `json:"arena"`
}

func runReplay(args []string) error {
	tracePath := args[0]

	printVerbose("Reading trace: %s\n", tracePath)

	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	ops, err := replay.Parse(f)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations\n", len(ops))

	a, release, err := newAllocator(arenaConfig{
		Strategy:    replayStrategy,
		Size:        replaySize,
		ObjectSize:  replayObjectSize,
		ObjectAlign: replayObjectAlign,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("replay: release arena", "err", err)
		}
	}()

	res, runErr := replay.Run(a, ops, replay.Options{
		ContinueOnError: replayContinue,
		Verify:          replayVerify,
	})

	out := replayOutput{
		Trace:          tracePath,
		Ops:            res.Ops,
		Allocs:         res.Allocs,
		Frees:          res.Frees,
		Clears:         res.Clears,
		Failed:         res.Failed,
		BytesRequested: res.BytesRequested,
		Live:           res.Live,
		Arena:          reportArena(replayStrategy, a),
	}
	out.Arena.PeakUsage = max(out.Arena.PeakUsage, res.PeakUsage)
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}

	if jsonOut {
		if err := printJSON(out); err != nil {
			return err
		}
		return runErr
	}

	printInfo("\nReplay of %s:\n", tracePath)
	printInfo("  Operations:   %d of %d\n", out.Ops, len(ops))
	printInfo("  Allocations:  %d (%d bytes requested)\n", out.Allocs, out.BytesRequested)
	printInfo("  Frees:        %d\n", out.Frees)
	printInfo("  Clears:       %d\n", out.Clears)
	printInfo("  Failed:       %d\n", out.Failed)
	printInfo("  Still live:   %d\n", out.Live)
	for _, e := range out.Errors {
		printInfo("  ! %s\n", e)
	}
	printArenaReport(out.Arena)
	return runErr
}
