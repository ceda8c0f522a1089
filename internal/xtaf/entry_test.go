package xtaf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestContext builds a working Context over a fresh in-memory
// volume whose only allocated cluster is the root directory's, wiring
// an OverlayFAT when useOverlay is set (fsck and unrm always run
// against the overlay; plain create/rename tests don't need it).
func newTestContext(t *testing.T, clusFat uint32, opts Options, useOverlay bool) *Context {
	t.Helper()
	disk, geom := testFAT(t, clusFat)
	require.NoError(t, disk.Write(geom.RootCluster, ClusterEOC))
	disk.GapCheck()
	var fat FAT = disk
	if useOverlay {
		fat = NewOverlayFAT(disk, !opts.NoLost)
	}
	ctx := &Context{Dev: disk.dev, Fat: fat, Geom: geom, Opts: opts}
	require.NoError(t, ctx.Init())
	return ctx
}

func TestNewEntryAddFindRemove(t *testing.T) {
	ctx := newTestContext(t, 32, Options{}, false)

	e, err := NewEntry(ctx, ctx.Root, "A.BIN", false, 100)
	require.NoError(t, err)
	require.NoError(t, ctx.Root.AddToDir(e))

	got := ctx.Root.Find("A.BIN")
	require.NotNil(t, got)
	require.Equal(t, "A.BIN", got.Name())
	require.Equal(t, uint64(100), got.Size())

	require.NoError(t, ctx.Root.RemFromDir(got, false))
	require.Nil(t, ctx.Root.Find("A.BIN"))
}

func TestAddToDirRejectsDuplicateName(t *testing.T) {
	ctx := newTestContext(t, 32, Options{}, false)

	a, err := NewEntry(ctx, ctx.Root, "A.BIN", false, 10)
	require.NoError(t, err)
	require.NoError(t, ctx.Root.AddToDir(a))

	b, err := NewEntry(ctx, ctx.Root, "A.BIN", false, 10)
	require.NoError(t, err)
	err = ctx.Root.AddToDir(b)
	require.Error(t, err)
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
}

func TestRenameMovesEntryBetweenDirectories(t *testing.T) {
	ctx := newTestContext(t, 32, Options{}, false)

	sub, err := NewEntry(ctx, ctx.Root, "SUB", true, 0)
	require.NoError(t, err)
	require.NoError(t, ctx.Root.AddToDir(sub))

	f, err := NewEntry(ctx, ctx.Root, "X.BIN", false, 10)
	require.NoError(t, err)
	require.NoError(t, ctx.Root.AddToDir(f))

	require.NoError(t, f.Rename("SUB/Y.BIN"))

	require.Nil(t, ctx.Root.Find("X.BIN"))
	moved := ctx.Root.Find("SUB/Y.BIN")
	require.NotNil(t, moved)
	require.Equal(t, "Y.BIN", moved.Name())
}

func TestRenameWithinSameDirectory(t *testing.T) {
	ctx := newTestContext(t, 32, Options{}, false)

	f, err := NewEntry(ctx, ctx.Root, "X.BIN", false, 10)
	require.NoError(t, err)
	require.NoError(t, ctx.Root.AddToDir(f))

	require.NoError(t, f.Rename("Z.BIN"))
	require.Nil(t, ctx.Root.Find("X.BIN"))
	require.NotNil(t, ctx.Root.Find("Z.BIN"))
}

func TestCircularParentDetected(t *testing.T) {
	ctx := newTestContext(t, 32, Options{}, false)

	sub, err := NewEntry(ctx, ctx.Root, "SUB", true, 0)
	require.NoError(t, err)
	require.NoError(t, ctx.Root.AddToDir(sub))

	// a genuine, non-cyclic child is fine.
	require.False(t, ctx.Root.circularParent(sub))

	// point SUB's own directory cluster back at the root cluster,
	// fabricating a cycle in the parent chain.
	sub.rec.Cluster = ctx.Geom.RootCluster
	require.True(t, ctx.Root.circularParent(sub))
}

// writeRawRecord encodes and writes a directory record directly to
// disk, bypassing Entry/persist, for tests that need to fabricate
// competing on-disk claims.
func writeRawRecord(t *testing.T, ctx *Context, loc uint64, r Record) {
	t.Helper()
	require.NoError(t, ctx.Dev.WriteAt(loc, r.Encode()))
}

func TestOpendirNewerDelwdataClaimWinsCluster(t *testing.T) {
	ctx := newTestContext(t, 32, Options{Recovery: true}, false)
	geom := ctx.Geom

	// an unallocated (FREE) data cluster the two records both claim,
	// as if their owning file's chain was already freed elsewhere.
	claimedCluster := uint32(2)

	older := Record{NameLen: deletedByte, Cluster: claimedCluster, Size: 10, Updated: 100}
	copy(older.Name[:], "OLDER.BIN")
	newer := Record{NameLen: deletedByte, Cluster: claimedCluster, Size: 10, Updated: 200}
	copy(newer.Name[:], "NEWER.BIN")

	rootLoc := geom.ClusterOffset(geom.RootCluster)
	writeRawRecord(t, ctx, rootLoc, older)
	writeRawRecord(t, ctx, rootLoc+RecordSize, newer)

	require.NoError(t, ctx.Root.opendir())

	var oldEntry, newEntry *Entry
	for _, c := range ctx.Root.Children() {
		switch {
		case c.rec.Updated == 100:
			oldEntry = c
		case c.rec.Updated == 200:
			newEntry = c
		}
	}
	require.NotNil(t, oldEntry)
	require.NotNil(t, newEntry)
	require.Equal(t, StatusDelNoData, oldEntry.status)
	require.Equal(t, StatusDelWData, newEntry.status)
}

func TestRealNameLenRecoversZeroPaddedName(t *testing.T) {
	var r Record
	copy(r.Name[:], "A.BIN")
	require.Equal(t, byte(5), r.realNameLen())

	full := Record{}
	for i := range full.Name {
		full.Name[i] = 'X'
	}
	require.Equal(t, byte(maxNameLen), full.realNameLen())
}
