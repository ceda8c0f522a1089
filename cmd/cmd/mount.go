package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/fatxtool/fatx/internal/fuseadapter"
	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/fatxtool/fatx/internal/privdrop"
	"github.com/fatxtool/fatx/internal/xtaf"
	utilos "github.com/fatxtool/fatx/pkg/util/os"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	f := &sharedFlags{}
	var mountpoint string
	var uid, gid, mask uint32
	var foreground, singlethreaded, gapcheck bool

	cmd := &cobra.Command{
		Use:          "mount",
		Short:        "Mount a FATX volume as a userspace filesystem",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMount(f, mountpoint, uid, gid, os.FileMode(mask), foreground, singlethreaded, gapcheck)
		},
	}
	addSharedFlags(cmd, f)
	cmd.Flags().StringVarP(&mountpoint, "mount", "m", "", "mountpoint directory")
	cmd.Flags().Uint32Var(&uid, "uid", uint32(os.Getuid()), "uid reported for every entry")
	cmd.Flags().Uint32Var(&gid, "gid", uint32(os.Getgid()), "gid reported for every entry")
	cmd.Flags().Uint32Var(&mask, "mask", 0022, "permission mask")
	cmd.Flags().BoolVarP(&foreground, "foregrd", "f", false, "run in the foreground")
	cmd.Flags().BoolVarP(&singlethreaded, "singlethr", "s", false, "force single-threaded request handling")
	cmd.Flags().BoolVar(&gapcheck, "gapcheck", false, "rebuild the free-space index before mounting")
	_ = cmd.MarkFlagRequired("mount")
	return cmd
}

func runMount(f *sharedFlags, mountpoint string, uid, gid uint32, mask os.FileMode, foreground, singlethreaded, gapcheck bool) error {
	if _, err := utilos.EnsureDir(mountpoint, true); err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	var changed bool
	confirm := newConfirmer(f, &changed)
	orch, err := orchestrator.Setup(f.config(), xtaf.ModeMount, xtaf.Options{}, confirm, false)
	if err != nil {
		return err
	}
	defer orch.Close()

	if f.runas != "" {
		if err := privdrop.DropTo(f.runas); err != nil {
			return err
		}
	}

	orchestrator.PrepareMount(orch.Context(), gapcheck)

	c, err := fuse.Mount(mountpoint, fuse.FSName("fatx"), fuse.Subtype("fatx"))
	if err != nil {
		return err
	}
	defer c.Close()

	adapter := fuseadapter.New(orch.Context(), uid, gid, mask, singlethreaded)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- fusefs.Serve(c, adapter)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		return err
	case sig := <-sigc:
		log.Printf("received %v, unmounting %s", sig, mountpoint)
		if err := fuse.Unmount(mountpoint); err != nil {
			return fmt.Errorf("mount: unmount %s: %w", mountpoint, err)
		}
	}
	return nil
}

func newConfirmer(f *sharedFlags, changed *bool) xtaf.Confirmer {
	return newOrchestratorConfirmer(f.all, f.none, f.auto, changed)
}
