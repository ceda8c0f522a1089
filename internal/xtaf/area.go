package xtaf

// Area is a contiguous run of clusters belonging to one chain, with
// its file-offset origin (spec §3).
type Area struct {
	FileOffset    uint64
	DevicePointer uint64
	ByteSize      uint64
	StartCluster  uint32
	StopCluster   uint32
}

// NumClusters returns stop-start+1.
func (a Area) NumClusters() uint32 {
	return a.StopCluster - a.StartCluster + 1
}

// AreaVector is the ordered sequence of Areas for a chain, ascending
// file offsets covering [0, Σsize).
type AreaVector struct {
	geom  Geometry
	areas []Area
}

// NewAreaVector wraps a slice of contiguous, file-offset-ordered
// areas.
func NewAreaVector(geom Geometry, areas []Area) AreaVector {
	return AreaVector{geom: geom, areas: areas}
}

// Areas exposes the underlying slice (read-only use).
func (v AreaVector) Areas() []Area { return v.areas }

// Size returns Σ area.ByteSize.
func (v AreaVector) Size() uint64 {
	var total uint64
	for _, a := range v.areas {
		total += a.ByteSize
	}
	return total
}

// NumClusters returns the total cluster count across all areas.
func (v AreaVector) NumClusters() uint32 {
	var n uint32
	for _, a := range v.areas {
		n += a.NumClusters()
	}
	return n
}

// Empty reports whether the vector covers zero bytes.
func (v AreaVector) Empty() bool { return len(v.areas) == 0 }

// Sub returns the subrange of the vector covering [offset, offset+length),
// splitting boundary areas so the result's total size equals length
// (or less, if the vector is shorter).
func (v AreaVector) Sub(offset, length uint64) AreaVector {
	var out []Area
	end := offset + length
	var pos uint64
	for _, a := range v.areas {
		aEnd := pos + a.ByteSize
		if aEnd <= offset || pos >= end {
			pos = aEnd
			continue
		}
		lo := maxU64(offset, pos)
		hi := minU64(end, aEnd)
		skip := lo - pos
		keep := hi - lo

		clusSize := uint64(v.geom.ClusterSize)
		startClusDelta := uint32(skip / clusSize)
		numClus := uint32((skip+keep+clusSize-1)/clusSize) - startClusDelta

		sub := Area{
			FileOffset:    a.FileOffset + skip,
			DevicePointer: a.DevicePointer + skip,
			ByteSize:      keep,
			StartCluster:  a.StartCluster + startClusDelta,
			StopCluster:   a.StartCluster + startClusDelta + numClus - 1,
		}
		out = append(out, sub)
		pos = aEnd
	}
	return AreaVector{geom: v.geom, areas: out}
}

// Add concatenates other after v, merging a trailing area with the
// head of other when their clusters are adjacent.
func (v AreaVector) Add(other AreaVector) AreaVector {
	if len(other.areas) == 0 {
		return v
	}
	if len(v.areas) == 0 {
		return other
	}
	out := make([]Area, len(v.areas))
	copy(out, v.areas)

	last := out[len(out)-1]
	head := other.areas[0]
	if last.StopCluster+1 == head.StartCluster {
		out[len(out)-1] = Area{
			FileOffset:    last.FileOffset,
			DevicePointer: last.DevicePointer,
			ByteSize:      last.ByteSize + head.ByteSize,
			StartCluster:  last.StartCluster,
			StopCluster:   head.StopCluster,
		}
		out = append(out, other.areas[1:]...)
	} else {
		out = append(out, other.areas...)
	}
	// re-thread FileOffset across the tail so the offsets stay
	// contiguous even if the caller passed a non-normalized vector.
	var pos uint64
	if len(out) > 0 {
		pos = out[0].FileOffset
	}
	for i := range out {
		out[i].FileOffset = pos
		pos += out[i].ByteSize
	}
	return AreaVector{geom: v.geom, areas: out}
}

// At returns the n-th cluster following the chain (0-based).
func (v AreaVector) At(n uint32) (uint32, bool) {
	var seen uint32
	for _, a := range v.areas {
		count := a.NumClusters()
		if n < seen+count {
			return a.StartCluster + (n - seen), true
		}
		seen += count
	}
	return 0, false
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
