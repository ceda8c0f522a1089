// Package orchestrator drives setup, the checking passes, the
// undelete passes, the mkfs sequence, and the label operation
// (spec §4.8, component 11).
package orchestrator

import (
	"fmt"

	"github.com/fatxtool/fatx/internal/device"
	"github.com/fatxtool/fatx/internal/logger"
	"github.com/fatxtool/fatx/internal/partition"
	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/afero"
)

// Exit codes, spec §6.3.
const (
	ExitOK        = 0
	ExitCorrected = 1
	ExitRemaining = 4
	ExitInternal  = 8
	ExitUsage     = 16
)

// Config bundles the CLI-derived setup parameters common to every
// mode.
type Config struct {
	Fs        afero.Fs
	InputPath string
	ReadOnly  bool
	TestMode  bool

	Container partition.Container
	Slot      partition.Slot

	ForcedOffset      *uint64
	ForcedSize        *uint64
	ForcedClusterSize *uint32

	Log *logger.Logger
}

// Orchestrator owns the Device/Context lifecycle for one run.
type Orchestrator struct {
	cfg Config
	dev *device.Device
	ctx *xtaf.Context
}

// Setup opens the device, detects the partition, builds geometry, and
// constructs the root Entry. mode/opts configure the engine's
// behavior for the run that follows.
func Setup(cfg Config, mode xtaf.Mode, opts xtaf.Options, confirm xtaf.Confirmer, useOverlay bool) (*Orchestrator, error) {
	dev, err := device.Open(cfg.Fs, cfg.InputPath, cfg.ReadOnly, cfg.TestMode)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	geom, err := partition.Detect(uint64(dev.Size()), dev.ReadAt, partition.Request{
		Container:         cfg.Container,
		Slot:              cfg.Slot,
		ForcedOffset:      cfg.ForcedOffset,
		ForcedSize:        cfg.ForcedSize,
		ForcedClusterSize: cfg.ForcedClusterSize,
	})
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	opts.Mode = mode
	var fat xtaf.FAT
	disk := xtaf.NewDiskFAT(dev, geom, mode == xtaf.ModeFsck, confirm)
	if useOverlay {
		fat = xtaf.NewOverlayFAT(disk, !opts.NoLost)
	} else {
		fat = disk
	}

	ctx := &xtaf.Context{
		Dev:     dev,
		Fat:     fat,
		Geom:    geom,
		Opts:    opts,
		Confirm: confirm,
	}
	if err := ctx.Init(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	return &Orchestrator{cfg: cfg, dev: dev, ctx: ctx}, nil
}

// Context exposes the engine context, e.g. for the mount adapter.
func (o *Orchestrator) Context() *xtaf.Context { return o.ctx }

// Close closes the underlying device.
func (o *Orchestrator) Close() error {
	return o.dev.Close()
}

// deviceOpenForMkfs opens the target for mkfs, which writes a boot
// sector before any partition signature exists, so it bypasses
// Detect entirely.
func deviceOpenForMkfs(cfg Config) (*device.Device, error) {
	return device.Open(cfg.Fs, cfg.InputPath, false, cfg.TestMode)
}
