package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func DefineUnrmCommand() *cobra.Command {
	f := &sharedFlags{}
	var local, nofat, nodate, nolost bool
	var localDir string

	cmd := &cobra.Command{
		Use:          "unrm",
		Short:        "Recover deleted files from a FATX volume",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnrm(f, local, nofat, nodate, nolost, localDir)
		},
	}
	addSharedFlags(cmd, f)
	cmd.Flags().BoolVar(&local, "local", false, "dump recovered files to the host filesystem instead of the volume")
	cmd.Flags().BoolVar(&nofat, "nofat", false, "skip the final FAT lost-chain sweep")
	cmd.Flags().BoolVar(&nodate, "nodate", false, "ignore timestamps when resolving deleted-record ownership")
	cmd.Flags().BoolVar(&nolost, "nolost", false, "don't attempt to recover orphaned lost chains")
	cmd.Flags().StringVar(&localDir, "local-dir", ".", "destination directory for --local recovery")
	return cmd
}

func runUnrm(f *sharedFlags, local, nofat, nodate, nolost bool, localDir string) error {
	var changed bool
	confirm := newConfirmer(f, &changed)

	opts := xtaf.Options{
		NoFAT:    nofat,
		NoDate:   nodate,
		NoLost:   nolost,
		Local:    local,
		Recovery: true,
		DelDate:  !nodate,
	}
	orch, err := orchestrator.Setup(f.config(), xtaf.ModeUnrm, opts, confirm, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(orchestrator.ExitInternal)
	}
	defer orch.Close()

	hostFs := afero.NewOsFs()
	localDump := func(e *xtaf.Entry) error {
		if err := e.Open(false); err != nil {
			return err
		}
		defer e.Close()
		buf := make([]byte, e.Size())
		if err := e.BufRead(buf, 0); err != nil {
			return err
		}
		return afero.WriteFile(hostFs, filepath.Join(localDir, e.Name()), buf, 0644)
	}

	res, err := orchestrator.Unrm(orch.Context(), confirm, &changed, localDump)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(orchestrator.ExitInternal)
	}
	if res.ErrorsRemain {
		fmt.Fprintln(os.Stderr, "unrm: unresolved lost chains remain")
	}
	os.Exit(res.ExitCode)
	return nil
}
