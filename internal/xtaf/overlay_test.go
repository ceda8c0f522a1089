package xtaf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlayReadFallsThroughToDiskWhenDellostTrue(t *testing.T) {
	disk, _ := testFAT(t, 32)
	require.NoError(t, disk.Write(5, 6))

	o := NewOverlayFAT(disk, true)
	v, err := o.Read(5)
	require.NoError(t, err)
	require.Equal(t, uint32(6), v)
}

func TestOverlayReadHidesUnmappedClusterWhenDellostFalse(t *testing.T) {
	disk, _ := testFAT(t, 32)
	require.NoError(t, disk.Write(5, 6))

	o := NewOverlayFAT(disk, false)
	v, err := o.Read(5)
	require.NoError(t, err)
	require.Equal(t, uint32(ClusterFree), v)
}

func TestOverlayChangeOverridesDiskRead(t *testing.T) {
	disk, _ := testFAT(t, 32)
	require.NoError(t, disk.Write(5, 6))

	o := NewOverlayFAT(disk, false)
	o.Change(5, nil, 9, StatusModified)

	v, err := o.Read(5)
	require.NoError(t, err)
	require.Equal(t, uint32(9), v)
	require.Equal(t, StatusModified, o.Status(5))
}

func TestOverlayMarkChainSeesDiskValuesRegardlessOfDellost(t *testing.T) {
	disk, _ := testFAT(t, 32)
	av, err := disk.Alloc(3, 0)
	require.NoError(t, err)
	start, _ := av.At(0)

	o := NewOverlayFAT(disk, false)
	require.NoError(t, o.MarkChain(start, nil))

	require.Equal(t, StatusMarked, o.Status(start))
	got, err := o.GetAreas(start, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(3), got.NumClusters())

	// dellost must be restored to its constructed value afterward.
	unrelated, err := o.Read(start + 10)
	require.NoError(t, err)
	require.Equal(t, uint32(ClusterFree), unrelated)
}

func TestOverlayFatLostFindsUnmarkedChain(t *testing.T) {
	disk, _ := testFAT(t, 32)
	av, err := disk.Alloc(2, 0)
	require.NoError(t, err)
	start, _ := av.At(0)

	o := NewOverlayFAT(disk, true)
	require.NoError(t, o.FatLost())

	require.Len(t, o.Lost(), 1)
	first, ok := o.Lost()[0].At(0)
	require.True(t, ok)
	require.Equal(t, start, first)
}

func TestOverlayFatLostSkipsMarkedChain(t *testing.T) {
	disk, _ := testFAT(t, 32)
	av, err := disk.Alloc(2, 0)
	require.NoError(t, err)
	start, _ := av.At(0)

	o := NewOverlayFAT(disk, true)
	require.NoError(t, o.MarkChain(start, nil))
	require.NoError(t, o.FatLost())
	require.Empty(t, o.Lost())
}

type yesAllConfirmer struct{ changed *bool }

func (c yesAllConfirmer) Confirm(string) bool {
	*c.changed = true
	return true
}

func TestOverlayFatCheckFsckFreesLostChain(t *testing.T) {
	disk, _ := testFAT(t, 32)
	_, err := disk.Alloc(2, 0)
	require.NoError(t, err)

	o := NewOverlayFAT(disk, true)
	require.NoError(t, o.FatLost())
	require.Len(t, o.Lost(), 1)

	var changed bool
	require.NoError(t, o.FatCheck(ModeFsck, yesAllConfirmer{&changed}, nil))
	require.True(t, changed)
	require.Empty(t, o.Lost())
	require.Equal(t, uint32(32), disk.ClsAvail())
}

func TestOverlayFatCheckUnrmRecoversLostChain(t *testing.T) {
	disk, _ := testFAT(t, 32)
	av, err := disk.Alloc(2, 0)
	require.NoError(t, err)
	start, _ := av.At(0)

	o := NewOverlayFAT(disk, true)
	require.NoError(t, o.FatLost())
	require.Len(t, o.Lost(), 1)

	var changed bool
	var recovered AreaVector
	recoverLost := func(v AreaVector) error {
		recovered = v
		return nil
	}
	require.NoError(t, o.FatCheck(ModeUnrm, yesAllConfirmer{&changed}, recoverLost))
	require.True(t, changed)
	require.Empty(t, o.Lost())
	first, ok := recovered.At(0)
	require.True(t, ok)
	require.Equal(t, start, first)
}
