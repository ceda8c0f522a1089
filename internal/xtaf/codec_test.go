package xtaf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLE16RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	PutLE16(buf, 0xBEEF)
	require.Equal(t, uint16(0xBEEF), LE16(buf))
}

func TestLE32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutLE32(buf, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), LE32(buf))
}
