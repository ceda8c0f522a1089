package xtaf

// Cluster pointer sentinels. FATX chains use a 16-bit cell when the
// FAT has fewer than 0xFFF0 data clusters, else a 32-bit cell; both
// are widened to a uint32 in memory with EOC sign-extended.
const (
	ClusterFree = 0x00000000
	ClusterEOC  = 0xFFFFFFFF
	fat16Thresh = 0xFFF0
	fat16EOC    = 0xFFFF
)

// ChainSize returns the on-disk size in bytes of one FAT cell for a
// filesystem with clusFat data clusters.
func ChainSize(clusFat uint32) int {
	if clusFat < fat16Thresh {
		return 2
	}
	return 4
}

// Geometry holds the immutable partition layout derived by the
// partition detector (spec §3, "Partition geometry").
type Geometry struct {
	PartitionOffset uint64
	PartitionSize   uint64
	ClusterSize     uint32 // power of two
	ClusFat         uint32 // number of data clusters
	FATOffset       uint64
	FATSize         uint64
	DataOffset      uint64
	RootCluster     uint32
	PartitionID     uint32
	ChainSize       int // 2 or 4, bytes per FAT cell
}

const fatBaseOffset = 0x1000

// NewGeometry derives the fixed offsets from a partition's byte range
// and cluster arithmetic, per spec §3.
func NewGeometry(partOffset, partSize uint64, clusterSize uint32, clusFat uint32, rootCluster, partitionID uint32) Geometry {
	chainSize := ChainSize(clusFat)
	fatOffset := partOffset + fatBaseOffset
	fatBytes := uint64(clusFat) * uint64(chainSize)
	fatSize := roundUp(fatBytes, fatBaseOffset)
	return Geometry{
		PartitionOffset: partOffset,
		PartitionSize:   partSize,
		ClusterSize:     clusterSize,
		ClusFat:         clusFat,
		FATOffset:       fatOffset,
		FATSize:         fatSize,
		DataOffset:      fatOffset + fatSize,
		RootCluster:     rootCluster,
		PartitionID:     partitionID,
		ChainSize:       chainSize,
	}
}

func roundUp(v, mult uint64) uint64 {
	if v%mult == 0 {
		return v
	}
	return (v/mult + 1) * mult
}

// ClusterOffset returns the byte offset of cluster c within the data
// area (device-absolute).
func (g Geometry) ClusterOffset(c uint32) uint64 {
	return g.DataOffset + uint64(c-g.RootCluster)*uint64(g.ClusterSize)
}

// FATCellOffset returns the device-absolute byte offset of the FAT
// cell for cluster c.
func (g Geometry) FATCellOffset(c uint32) uint64 {
	return g.FATOffset + uint64(c)*uint64(g.ChainSize)
}

// InRange reports whether c is a valid data cluster index.
func (g Geometry) InRange(c uint32) bool {
	return c >= 1 && c <= g.ClusFat
}

// ClustersFor returns ceil(size / cluster size).
func (g Geometry) ClustersFor(size uint64) uint32 {
	if size == 0 {
		return 0
	}
	return uint32((size + uint64(g.ClusterSize) - 1) / uint64(g.ClusterSize))
}

// widenEOC widens a raw FAT cell value read from a chainSize-byte cell
// into the canonical 32-bit representation, sign-extending the 16-bit
// end-of-chain marker.
func widenEOC(raw uint32, chainSize int) uint32 {
	if chainSize == 2 && raw == fat16EOC {
		return ClusterEOC
	}
	return raw
}

// narrowEOC is the inverse of widenEOC, used when persisting a cell.
func narrowEOC(v uint32, chainSize int) uint32 {
	if chainSize == 2 && v == ClusterEOC {
		return fat16EOC
	}
	return v
}
