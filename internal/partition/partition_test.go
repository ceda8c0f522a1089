package partition

import (
	"testing"

	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/stretchr/testify/require"
)

func fakeReadAt(image []byte) func(uint64, int) ([]byte, error) {
	return func(offset uint64, size int) ([]byte, error) {
		if offset+uint64(size) > uint64(len(image)) {
			return nil, &xtaf.DeviceShortError{Offset: offset, Size: size}
		}
		return image[offset : offset+uint64(size)], nil
	}
}

func TestDetectForcedOffset(t *testing.T) {
	image := make([]byte, 0x200000)
	boot := WriteBootSector(7, 32, 1)
	copy(image[0x1000:], boot)

	geom, err := Detect(uint64(len(image)), fakeReadAt(image), Request{ForcedOffset: u64ptr(0x1000)})
	require.NoError(t, err)
	require.Equal(t, uint32(7), geom.PartitionID)
	require.Equal(t, uint32(512*32), geom.ClusterSize)
	require.Equal(t, uint32(1), geom.RootCluster)
}

func TestDetectNoSignatureFails(t *testing.T) {
	image := make([]byte, 0x200000)
	_, err := Detect(uint64(len(image)), fakeReadAt(image), Request{ForcedOffset: u64ptr(0)})
	require.Error(t, err)
	require.IsType(t, &xtaf.FormatUnrecognizedError{}, err)
}

func TestDetectAutoFallsBackToWholeDevice(t *testing.T) {
	image := make([]byte, 0x100000)
	boot := WriteBootSector(1, 16, 1)
	copy(image[0:], boot)

	geom, err := Detect(uint64(len(image)), fakeReadAt(image), Request{Container: ContainerAuto})
	require.NoError(t, err)
	require.Equal(t, uint32(1), geom.PartitionID)
}

func TestWriteBootSectorRoundTrip(t *testing.T) {
	boot := WriteBootSector(42, 8, 3)
	require.Equal(t, "XTAF", string(boot[0:4]))
	require.Equal(t, uint32(42), xtaf.LE32(boot[4:8]))
	require.Equal(t, uint32(8), xtaf.LE32(boot[8:12]))
	require.Equal(t, uint32(3), xtaf.LE32(boot[12:16]))
}

func u64ptr(v uint64) *uint64 { return &v }
