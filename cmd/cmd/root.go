package cmd

import (
	"os"
	"path/filepath"

	"github.com/fatxtool/fatx/internal/logger"
	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/fatxtool/fatx/internal/partition"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const AppName = "fatx"

// sharedFlags collects the flag set common to every mode, per
// spec §6.3.
type sharedFlags struct {
	verbose bool
	input   string
	offset  int64
	size    int64
	part    string
	table   string
	all     bool
	none    bool
	auto    bool
	test    bool
	debug   bool
	runas   string
}

func addSharedFlags(cmd *cobra.Command, f *sharedFlags) {
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "device or image path")
	cmd.Flags().Int64Var(&f.offset, "offset", 0, "forced partition offset")
	cmd.Flags().Int64Var(&f.size, "size", 0, "forced partition size")
	cmd.Flags().StringVarP(&f.part, "partition", "p", "", "partition slot: sc, gc, cp, x1, x2")
	cmd.Flags().StringVarP(&f.table, "table", "b", "", "container layout: auto, mu, file, hd, kit, usb")
	cmd.Flags().BoolVarP(&f.all, "all", "y", false, "answer every repair prompt yes")
	cmd.Flags().BoolVarP(&f.none, "none", "n", false, "answer every repair prompt no")
	cmd.Flags().BoolVarP(&f.auto, "auto", "a", false, "answer every repair prompt with the default")
	cmd.Flags().BoolVarP(&f.test, "test", "t", false, "test mode: never write to the device")
	cmd.Flags().BoolVarP(&f.debug, "debug", "d", false, "debug logging")
	cmd.Flags().StringVar(&f.runas, "runas", "", "drop privileges to this user after opening the device")
	_ = cmd.MarkFlagRequired("input")
}

func (f *sharedFlags) newLogger() *logger.Logger {
	level := logger.InfoLevel
	if f.debug || f.verbose {
		level = logger.DebugLevel
	}
	return logger.New(os.Stderr, level)
}

func (f *sharedFlags) config() orchestrator.Config {
	cfg := orchestrator.Config{
		Fs:        afero.NewOsFs(),
		InputPath: f.input,
		TestMode:  f.test,
		Container: partition.Container(f.table),
		Slot:      partition.Slot(f.part),
		Log:       f.newLogger(),
	}
	if f.offset != 0 {
		v := uint64(f.offset)
		cfg.ForcedOffset = &v
	}
	if f.size != 0 {
		v := uint64(f.size)
		cfg.ForcedSize = &v
	}
	return cfg
}

// Execute builds the root command with one subcommand per mode plus
// the argv[0]-derived default selected by main.go.
func Execute(defaultMode string) error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: "FATX filesystem toolkit: mount, mkfs, fsck, unrm, label",
	}

	rootCmd.AddCommand(DefineMountCommand())
	rootCmd.AddCommand(DefineMkfsCommand())
	rootCmd.AddCommand(DefineFsckCommand())
	rootCmd.AddCommand(DefineUnrmCommand())
	rootCmd.AddCommand(DefineLabelCommand())

	if defaultMode != "" && len(os.Args) > 1 {
		if _, _, err := rootCmd.Find(os.Args[1:]); err != nil {
			args := append([]string{defaultMode}, os.Args[1:]...)
			rootCmd.SetArgs(args)
		}
	}

	return rootCmd.Execute()
}

// BinaryMode maps argv[0] onto its implied mode, matching the
// coreutils-style multi-call binary spec §6.3 describes.
func BinaryMode() string {
	switch filepath.Base(os.Args[0]) {
	case "mkfs.fatx":
		return "mkfs"
	case "fsck.fatx":
		return "fsck"
	case "unrm.fatx":
		return "unrm"
	case "label.fatx":
		return "label"
	case "fusefatx":
		return "mount"
	}
	return ""
}
