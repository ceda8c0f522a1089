package xtaf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainSizeThreshold(t *testing.T) {
	require.Equal(t, 2, ChainSize(0xFFEF))
	require.Equal(t, 4, ChainSize(0xFFF0))
}

func TestNewGeometryOffsets(t *testing.T) {
	g := NewGeometry(0x10000, 0x1000000, 4096, 1000, 1, 0)
	require.Equal(t, uint64(0x10000+fatBaseOffset), g.FATOffset)
	require.True(t, g.FATSize%fatBaseOffset == 0)
	require.Equal(t, g.FATOffset+g.FATSize, g.DataOffset)
	require.Equal(t, 2, g.ChainSize)
}

func TestGeometryClusterOffset(t *testing.T) {
	g := NewGeometry(0, 0x100000, 512, 100, 1, 0)
	require.Equal(t, g.DataOffset, g.ClusterOffset(1))
	require.Equal(t, g.DataOffset+512, g.ClusterOffset(2))
}

func TestGeometryInRange(t *testing.T) {
	g := NewGeometry(0, 0x100000, 512, 100, 1, 0)
	require.True(t, g.InRange(1))
	require.True(t, g.InRange(100))
	require.False(t, g.InRange(0))
	require.False(t, g.InRange(101))
}

func TestGeometryClustersFor(t *testing.T) {
	g := NewGeometry(0, 0x100000, 512, 100, 1, 0)
	require.Equal(t, uint32(0), g.ClustersFor(0))
	require.Equal(t, uint32(1), g.ClustersFor(1))
	require.Equal(t, uint32(1), g.ClustersFor(512))
	require.Equal(t, uint32(2), g.ClustersFor(513))
}

func TestWidenNarrowEOC16Bit(t *testing.T) {
	require.Equal(t, uint32(ClusterEOC), widenEOC(fat16EOC, 2))
	require.Equal(t, uint32(fat16EOC), narrowEOC(ClusterEOC, 2))
}

func TestWidenNarrowEOC32Bit(t *testing.T) {
	require.Equal(t, uint32(ClusterEOC), widenEOC(ClusterEOC, 4))
	require.Equal(t, uint32(ClusterEOC), narrowEOC(ClusterEOC, 4))
}
