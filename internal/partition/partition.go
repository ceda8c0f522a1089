// Package partition implements FATX partition auto-detection under
// the several container layouts described in spec §4.2, and derives
// the immutable geometry the rest of the engine runs on.
package partition

import (
	"fmt"

	"github.com/fatxtool/fatx/internal/xtaf"
)

// Container is the requested (or auto-detected) container hint.
type Container string

const (
	ContainerAuto Container = "auto"
	ContainerMU   Container = "mu"
	ContainerFile Container = "file"
	ContainerHD   Container = "hd"
	ContainerKit  Container = "kit"
	ContainerUSB  Container = "usb"
)

// Slot is the requested partition slot.
type Slot string

const (
	SlotSystemCache Slot = "sc"
	SlotGameCache   Slot = "gc"
	SlotContent     Slot = "cp"
	SlotXbox1       Slot = "x1"
	SlotXbox2       Slot = "x2"
)

// Request bundles the caller's hints for detection.
type Request struct {
	Container    Container
	Slot         Slot
	ForcedOffset *uint64
	ForcedSize   *uint64
	ForcedClusterSize *uint32
}

const signature = "XTAF"

var sizeTable = []uint32{
	512 * 16, 512 * 32, 512 * 64, 512 * 128,
}

// Detect locates a FATX partition on a device of the given size,
// applying the layout table of spec §4.2, then reads the boot sector
// and derives full geometry.
func Detect(devSize uint64, readAt func(offset uint64, size int) ([]byte, error), req Request) (xtaf.Geometry, error) {
	candidates, err := candidateRanges(devSize, readAt, req)
	if err != nil {
		return xtaf.Geometry{}, err
	}

	for _, cand := range candidates {
		sig, err := readAt(cand.offset, 4)
		if err != nil {
			continue
		}
		if string(sig) != signature {
			continue
		}
		return deriveGeometry(cand.offset, cand.size, readAt, req)
	}
	return xtaf.Geometry{}, &xtaf.FormatUnrecognizedError{}
}

type candidate struct {
	offset uint64
	size   uint64
}

func candidateRanges(devSize uint64, readAt func(uint64, int) ([]byte, error), req Request) ([]candidate, error) {
	if req.ForcedOffset != nil {
		size := devSize - *req.ForcedOffset
		if req.ForcedSize != nil {
			size = *req.ForcedSize
		}
		return []candidate{{offset: *req.ForcedOffset, size: size}}, nil
	}

	switch req.Container {
	case ContainerMU, ContainerFile, ContainerAuto, "":
		if req.Slot == SlotSystemCache {
			return []candidate{{offset: 0, size: 0x7FF000}}, nil
		}
		if devSize > 0x7FF000 {
			return []candidate{{offset: 0x7FF000, size: devSize - 0x7FF000}, {offset: 0, size: devSize}}, nil
		}
		return []candidate{{offset: 0, size: devSize}}, nil

	case ContainerHD:
		const base = 0x130EB0000
		switch req.Slot {
		case SlotSystemCache:
			return []candidate{{offset: 0x80000, size: 0x80000000}}, nil
		case SlotGameCache:
			return []candidate{{offset: 0x80080000, size: 0xA0E30000}}, nil
		case SlotXbox1:
			return []candidate{{offset: 0x120EB0000, size: 0x10000000}}, nil
		default:
			return []candidate{{offset: base, size: devSize - base}}, nil
		}

	case ContainerUSB:
		const base = 0x20000000
		if req.Slot == SlotSystemCache {
			return []candidate{{offset: 0x8000400, size: 0x4800000}}, nil
		}
		return []candidate{{offset: base, size: devSize - base}}, nil

	case ContainerKit:
		hdr, err := readAt(0, 24)
		if err != nil {
			return nil, err
		}
		id := xtaf.LE32(hdr[0:4])
		if id != 0x00020000 {
			return nil, fmt.Errorf("partition: unrecognized devkit header id 0x%x", id)
		}
		p2Start := xtaf.LE32(hdr[8:12])
		p2Size := xtaf.LE32(hdr[12:16])
		p1Start := xtaf.LE32(hdr[16:20])
		p1Size := xtaf.LE32(hdr[20:24])
		if req.Slot == SlotContent {
			return []candidate{{offset: uint64(p1Start) * 512, size: uint64(p1Size) * 512}}, nil
		}
		return []candidate{{offset: uint64(p2Start) * 512, size: uint64(p2Size) * 512}}, nil
	}
	return nil, fmt.Errorf("partition: unknown container %q", req.Container)
}

// deriveGeometry reads the 512-byte boot sector at partOffset and
// derives full Geometry.
func deriveGeometry(partOffset, partSize uint64, readAt func(uint64, int) ([]byte, error), req Request) (xtaf.Geometry, error) {
	boot, err := readAt(partOffset, 512)
	if err != nil {
		return xtaf.Geometry{}, err
	}
	partitionID := xtaf.LE32(boot[4:8])
	spc := xtaf.LE32(boot[8:12])
	rootClus := xtaf.LE32(boot[12:16])
	if rootClus == 0 {
		rootClus = 1
	}

	var clusterSize uint32
	if req.ForcedClusterSize != nil {
		clusterSize = *req.ForcedClusterSize
	} else if spc > 0 {
		clusterSize = 512 * spc
	} else {
		clusterSize = sizeTable[0]
	}
	if clusterSize == 0 || clusterSize&(clusterSize-1) != 0 {
		return xtaf.Geometry{}, fmt.Errorf("partition: cluster size %d is not a power of two", clusterSize)
	}

	dataAreaGuess := partSize - 0x1000
	clusFat := uint32(dataAreaGuess / uint64(clusterSize))

	if rootClus < 1 || rootClus > clusFat {
		rootClus = 1
	}

	geom := xtaf.NewGeometry(partOffset, partSize, clusterSize, clusFat, rootClus, partitionID)
	return geom, nil
}

// WriteBootSector encodes the 512-byte boot sector for mkfs (spec §6.2).
func WriteBootSector(partitionID uint32, sectorsPerCluster uint32, rootCluster uint32) []byte {
	buf := make([]byte, 512)
	copy(buf[0:4], signature)
	xtaf.PutLE32(buf[4:8], partitionID)
	xtaf.PutLE32(buf[8:12], sectorsPerCluster)
	xtaf.PutLE32(buf[12:16], rootCluster)
	return buf
}
