package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/vmem"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report platform and allocator layout constants",
		Long: `The info command prints the operating system page size and the
in-band header layout every allocation strategy uses.

Example:
  memctl info
  memctl info --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

// platformInfo is the JSON shape of memctl info.
type platformInfo struct {
	OS                string `json:"os"`
	Arch              string `json:"arch"`
	PageSize          int    `json:"page_size"`
	DefaultPageSize   int    `json:"default_page_size"`
	DefaultAlignment  int    `json:"default_alignment"`
	StackHeaderSize   int    `json:"stack_header_size"`
	BlockHeaderSize   int    `json:"block_header_size"`
	ArrayLengthSize   int    `json:"array_length_size"`
	AssertionsEnabled bool   `json:"assertions_enabled"`
}

func collectInfo() platformInfo {
	return platformInfo{
		OS:                runtime.GOOS,
		Arch:              runtime.GOARCH,
		PageSize:          vmem.PageSize(),
		DefaultPageSize:   format.DefaultPageSize,
		DefaultAlignment:  alloc.DefaultAlignment,
		StackHeaderSize:   format.StackHeaderSize,
		BlockHeaderSize:   format.BlockHeaderSize,
		ArrayLengthSize:   format.ArrayLengthSize,
		AssertionsEnabled: alloc.AssertionsEnabled(),
	}
}

func runInfo() error {
	info := collectInfo()
	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nPlatform:\n")
	printInfo("  OS/Arch:            %s/%s\n", info.OS, info.Arch)
	printInfo("  Page size:          %d bytes\n", info.PageSize)
	printInfo("\nAllocator layout:\n")
	printInfo("  Default alignment:  %d\n", info.DefaultAlignment)
	printInfo("  Default page size:  %d bytes\n", info.DefaultPageSize)
	printInfo("  Stack header:       %d bytes\n", info.StackHeaderSize)
	printInfo("  Free-list header:   %d bytes\n", info.BlockHeaderSize)
	printInfo("  Array length field: %d bytes\n", info.ArrayLengthSize)
	printInfo("  Debug assertions:   %t\n", info.AssertionsEnabled)
	return nil
}
