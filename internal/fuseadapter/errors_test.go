package fuseadapter

import (
	"testing"
	"time"

	"bazil.org/fuse"
	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/stretchr/testify/require"
)

func TestMapErrTranslatesKnownTypes(t *testing.T) {
	require.Equal(t, fuse.Errno(errNoSpace), mapErr(&xtaf.NoSpaceError{}))
	require.Equal(t, fuse.Errno(errExist), mapErr(&xtaf.DuplicateNameError{Name: "X"}))
	require.Equal(t, fuse.Errno(errROFS), mapErr(&xtaf.ReadOnlyError{}))
	require.Equal(t, fuse.EIO, mapErr(&xtaf.OutOfBoundsError{Kind: "offset", Value: 1}))
	require.Equal(t, fuse.EIO, mapErr(&xtaf.DeviceUnreachableError{}))
	require.Equal(t, fuse.EIO, mapErr(&xtaf.DeviceShortError{Offset: 0, Size: 1}))
}

func TestMapErrNilIsNil(t *testing.T) {
	require.NoError(t, mapErr(nil))
}

func TestDateToTime(t *testing.T) {
	d := xtaf.Date{Year: 2009, Month: 3, Day: 14, Hour: 1, Minute: 59, Second: 26}
	got := dateToTime(d)
	require.Equal(t, time.Date(2009, time.March, 14, 1, 59, 26, 0, time.UTC), got)
}
