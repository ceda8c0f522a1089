package cmd

import (
	"fmt"
	"os"

	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/cobra"
)

func DefineFsckCommand() *cobra.Command {
	f := &sharedFlags{}
	var nofat, nodate bool

	cmd := &cobra.Command{
		Use:          "fsck",
		Short:        "Check and repair a FATX volume",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFsck(f, nofat, nodate)
		},
	}
	addSharedFlags(cmd, f)
	cmd.Flags().BoolVar(&nofat, "nofat", false, "skip the FAT lost-chain sweep")
	cmd.Flags().BoolVar(&nodate, "nodate", false, "ignore timestamps when resolving deleted-record ownership")
	return cmd
}

func runFsck(f *sharedFlags, nofat, nodate bool) error {
	var changed bool
	confirm := newConfirmer(f, &changed)

	opts := xtaf.Options{NoFAT: nofat, NoDate: nodate}
	orch, err := orchestrator.Setup(f.config(), xtaf.ModeFsck, opts, confirm, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(orchestrator.ExitInternal)
	}
	defer orch.Close()

	res, err := orchestrator.Fsck(orch.Context(), confirm, &changed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(orchestrator.ExitInternal)
	}
	if res.ErrorsRemain {
		fmt.Fprintln(os.Stderr, "fsck: unresolved errors remain")
	}
	os.Exit(res.ExitCode)
	return nil
}
