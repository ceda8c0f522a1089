package orchestrator

import (
	"fmt"

	"github.com/fatxtool/fatx/internal/device"
	"github.com/fatxtool/fatx/internal/logger"
	"github.com/fatxtool/fatx/internal/partition"
	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/fatxtool/fatx/pkg/pbar"
	"github.com/fatxtool/fatx/pkg/util/format"
)

// MkfsRequest carries the parameters unique to mkfs, beyond Config.
type MkfsRequest struct {
	Label             string
	SectorsPerCluster uint32
	PartitionID       uint32
}

// Mkfs writes a fresh boot sector, zeroes the FAT and root cluster,
// marks the root cluster end-of-chain in the FAT, constructs an empty
// root directory, then applies the requested label, per spec §4.8's
// mkfs pipeline.
func Mkfs(cfg Config, req MkfsRequest, confirm xtaf.Confirmer) (int, error) {
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("erase %s and write a new FATX filesystem?", cfg.InputPath)) {
		return ExitUsage, fmt.Errorf("mkfs: not confirmed")
	}

	dev, err := deviceOpenForMkfs(cfg)
	if err != nil {
		return ExitInternal, err
	}
	defer dev.Close()

	boot := partition.WriteBootSector(req.PartitionID, req.SectorsPerCluster, 1)
	if err := dev.WriteAt(0, boot); err != nil {
		return ExitInternal, err
	}

	geom, err := partition.Detect(uint64(dev.Size()), dev.ReadAt, partition.Request{
		ForcedOffset:      u64ptr(0),
		ForcedClusterSize: u32ptr(512 * req.SectorsPerCluster),
	})
	if err != nil {
		return ExitInternal, err
	}

	if err := zeroRegion(dev, geom.FATOffset, geom.FATSize, cfg.Log); err != nil {
		return ExitInternal, err
	}
	zero := make([]byte, geom.ClusterSize)
	if err := dev.WriteAt(geom.ClusterOffset(geom.RootCluster), zero); err != nil {
		return ExitInternal, err
	}

	fat := xtaf.NewDiskFAT(dev, geom, false, nil)
	if err := fat.Write(geom.RootCluster, xtaf.ClusterEOC); err != nil {
		return ExitInternal, err
	}
	fat.GapCheck()

	ctx := &xtaf.Context{
		Dev:  dev,
		Fat:  fat,
		Geom: geom,
		Opts: xtaf.Options{Mode: xtaf.ModeMkfs},
	}
	if err := ctx.Init(); err != nil {
		return ExitInternal, err
	}

	if req.Label != "" {
		if err := WriteLabel(ctx, req.Label); err != nil {
			return ExitInternal, err
		}
	}

	if cfg.Log != nil {
		cfg.Log.Infof("wrote %s FATX volume to %s (%d-cluster FAT)", format.FormatBytes(int64(geom.ClusterOffset(geom.ClusFat))), cfg.InputPath, geom.ClusFat)
	}

	return ExitOK, nil
}

// zeroRegion overwrites size bytes at offset in fixed-size chunks,
// rendering a progress bar for regions large enough that a single
// WriteAt would stall visibly.
func zeroRegion(dev *device.Device, offset, size uint64, log *logger.Logger) error {
	const chunkSize = 4 << 20
	chunk := make([]byte, chunkSize)

	bar := pbar.NewProgressBarState(int64(size))
	showBar := log != nil && size > chunkSize

	var written uint64
	for written < size {
		n := uint64(chunkSize)
		if size-written < n {
			n = size - written
		}
		if err := dev.WriteAt(offset+written, chunk[:n]); err != nil {
			return err
		}
		written += n
		if showBar {
			bar.ProcessedBytes = int64(written)
			bar.Render(false)
		}
	}
	if showBar {
		bar.Render(true)
		bar.Finish()
	}
	return nil
}

func u64ptr(v uint64) *uint64 { return &v }
func u32ptr(v uint32) *uint32 { return &v }
