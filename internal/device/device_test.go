package device

import (
	"testing"

	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, fs afero.Fs, path string, size int) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, make([]byte, size), 0644))
}

func TestOpenReadWriteRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "img.bin", 4096)

	d, err := Open(fs, "img.bin", false, false)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.WriteAt(0, []byte("hello")))
	require.True(t, d.Modified())

	buf, err := d.ReadAt(0, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "img.bin", 4096)

	d, err := Open(fs, "img.bin", true, false)
	require.NoError(t, err)
	defer d.Close()

	err = d.WriteAt(0, []byte("x"))
	require.Error(t, err)
	require.IsType(t, &xtaf.ReadOnlyError{}, err)
	require.False(t, d.Modified())
}

func TestTestModeSuppressesWrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "img.bin", 4096)

	d, err := Open(fs, "img.bin", false, true)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.WriteAt(0, []byte("x")))
	require.False(t, d.Modified())

	buf, err := d.ReadAt(0, 1)
	require.NoError(t, err)
	require.Equal(t, byte(0), buf[0])
}

func TestReadAtOutOfBounds(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "img.bin", 16)

	d, err := Open(fs, "img.bin", true, false)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.ReadAt(1000, 4)
	require.Error(t, err)
	require.IsType(t, &xtaf.DeviceUnreachableError{}, err)
}

func TestWriteAtGrowsSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "img.bin", 16)

	d, err := Open(fs, "img.bin", false, false)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.WriteAt(10, []byte("abcdefg")))
	require.Equal(t, int64(17), d.Size())
}
