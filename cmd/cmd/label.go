package cmd

import (
	"fmt"
	"os"

	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/cobra"
)

func DefineLabelCommand() *cobra.Command {
	f := &sharedFlags{}
	var newLabel string

	cmd := &cobra.Command{
		Use:          "label",
		Short:        "Read or write a FATX volume's label",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabel(f, newLabel)
		},
	}
	addSharedFlags(cmd, f)
	cmd.Flags().StringVarP(&newLabel, "label", "l", "", "new label to set; omit to print the current label")
	return cmd
}

func runLabel(f *sharedFlags, newLabel string) error {
	var changed bool
	confirm := newConfirmer(f, &changed)

	orch, err := orchestrator.Setup(f.config(), xtaf.ModeLabel, xtaf.Options{}, confirm, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(orchestrator.ExitInternal)
	}
	defer orch.Close()

	if newLabel != "" {
		if err := orchestrator.WriteLabel(orch.Context(), newLabel); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(orchestrator.ExitInternal)
		}
		os.Exit(orchestrator.ExitCorrected)
	}

	label, err := orchestrator.ReadLabel(orch.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(orchestrator.ExitInternal)
	}
	fmt.Println(label)
	os.Exit(orchestrator.ExitOK)
	return nil
}
