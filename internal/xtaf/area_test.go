package xtaf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testGeom() Geometry {
	return Geometry{ClusterSize: 512, RootCluster: 1}
}

func TestAreaVectorSizeAndClusters(t *testing.T) {
	geom := testGeom()
	v := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 1000, ByteSize: 1024, StartCluster: 1, StopCluster: 2},
		{FileOffset: 1024, DevicePointer: 2000, ByteSize: 512, StartCluster: 5, StopCluster: 5},
	})
	require.Equal(t, uint64(1536), v.Size())
	require.Equal(t, uint32(3), v.NumClusters())
	require.False(t, v.Empty())
}

func TestAreaVectorAt(t *testing.T) {
	geom := testGeom()
	v := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 1000, ByteSize: 1536, StartCluster: 1, StopCluster: 3},
	})
	c, ok := v.At(0)
	require.True(t, ok)
	require.Equal(t, uint32(1), c)

	c, ok = v.At(2)
	require.True(t, ok)
	require.Equal(t, uint32(3), c)

	_, ok = v.At(3)
	require.False(t, ok)
}

func TestAreaVectorSub(t *testing.T) {
	geom := testGeom()
	v := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 1000, ByteSize: 512, StartCluster: 1, StopCluster: 1},
		{FileOffset: 512, DevicePointer: 1512, ByteSize: 512, StartCluster: 2, StopCluster: 2},
		{FileOffset: 1024, DevicePointer: 2024, ByteSize: 512, StartCluster: 3, StopCluster: 3},
	})

	sub := v.Sub(256, 768)
	require.Equal(t, uint64(768), sub.Size())
	c0, ok := sub.At(0)
	require.True(t, ok)
	require.Equal(t, uint32(1), c0)
}

func TestAreaVectorAddMergesAdjacent(t *testing.T) {
	geom := testGeom()
	a := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 1000, ByteSize: 512, StartCluster: 1, StopCluster: 1},
	})
	b := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 1512, ByteSize: 512, StartCluster: 2, StopCluster: 2},
	})

	merged := a.Add(b)
	require.Len(t, merged.Areas(), 1)
	require.Equal(t, uint64(1024), merged.Size())
}

func TestAreaVectorAddNonAdjacent(t *testing.T) {
	geom := testGeom()
	a := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 1000, ByteSize: 512, StartCluster: 1, StopCluster: 1},
	})
	b := NewAreaVector(geom, []Area{
		{FileOffset: 0, DevicePointer: 5000, ByteSize: 512, StartCluster: 10, StopCluster: 10},
	})

	merged := a.Add(b)
	require.Len(t, merged.Areas(), 2)
	require.Equal(t, uint64(512), merged.Areas()[1].FileOffset)
}
