package cmd

import (
	"fmt"
	"os"

	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/spf13/cobra"
)

func DefineMkfsCommand() *cobra.Command {
	f := &sharedFlags{}
	var label string
	var clsSize uint32
	var partitionID uint32

	cmd := &cobra.Command{
		Use:          "mkfs",
		Short:        "Write a fresh FATX filesystem",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMkfs(f, label, clsSize, partitionID)
		},
	}
	addSharedFlags(cmd, f)
	cmd.Flags().StringVarP(&label, "label", "l", "", "volume label to set")
	cmd.Flags().Uint32VarP(&clsSize, "cls-size", "c", 32, "sectors per cluster")
	cmd.Flags().Uint32Var(&partitionID, "partition-id", 0, "32-bit partition id written to the boot sector")
	return cmd
}

func runMkfs(f *sharedFlags, label string, clsSize, partitionID uint32) error {
	var changed bool
	confirm := newConfirmer(f, &changed)

	code, err := orchestrator.Mkfs(f.config(), orchestrator.MkfsRequest{
		Label:             label,
		SectorsPerCluster: clsSize,
		PartitionID:       partitionID,
	}, confirm)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
	return nil
}
