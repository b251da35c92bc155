// Command benchmark_parser turns `go test -bench` output for package alloc
// into a markdown report grouped by allocation strategy.
//
//	go test -run '^$' -bench . -benchmem ./alloc | go run ./scripts -output BENCH.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Strategy    string // Linear, Stack, GrowingStack, Pool, FreeList, New
	Case        string // e.g. SteadyState, AllocFree
	Procs       int
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// BenchmarkFreeList_SteadyState-8    1000000    123.4 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^Benchmark(\S+?)(?:-(\d+))?\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	report := generateMarkdownReport(results)

	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		procs, _ := strconv.Atoi(matches[2])
		iterations, _ := strconv.Atoi(matches[3])
		nsPerOp, _ := strconv.ParseFloat(matches[4], 64)

		var bytesPerOp, allocsPerOp int64
		if matches[5] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}
		if matches[6] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[6], 10, 64)
		}

		// Format: Benchmark<Strategy>_<Case>[-procs]
		strategy, benchCase, found := strings.Cut(name, "_")
		if !found {
			benchCase = "-"
		}

		results = append(results, BenchmarkResult{
			Name:        name,
			Strategy:    strategy,
			Case:        benchCase,
			Procs:       procs,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

func generateMarkdownReport(results []BenchmarkResult) string {
	var sb strings.Builder

	sb.WriteString("# memkit allocator benchmarks\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC3339)))

	if len(results) == 0 {
		sb.WriteString("No benchmark results found.\n")
		return sb.String()
	}

	byStrategy := make(map[string][]BenchmarkResult)
	for _, r := range results {
		byStrategy[r.Strategy] = append(byStrategy[r.Strategy], r)
	}
	strategies := make([]string, 0, len(byStrategy))
	for s := range byStrategy {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)

	sb.WriteString("| Strategy | Case | ns/op | B/op | allocs/op | Heap-free |\n")
	sb.WriteString("|----------|------|------:|-----:|----------:|:---------:|\n")
	heapAllocating := 0
	for _, s := range strategies {
		rows := byStrategy[s]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Case < rows[j].Case })
		for _, r := range rows {
			mark := "yes"
			if r.AllocsPerOp > 0 {
				mark = "no"
				heapAllocating++
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %d | %d | %s |\n",
				r.Strategy, r.Case, r.NsPerOp, r.BytesPerOp, r.AllocsPerOp, mark))
		}
	}

	sb.WriteString("\n")
	if heapAllocating == 0 {
		sb.WriteString("All benchmarks ran without touching the Go heap.\n")
	} else {
		sb.WriteString(fmt.Sprintf("%d benchmark(s) allocated on the Go heap.\n", heapAllocating))
	}
	return sb.String()
}
