package xtaf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelRoundTrip(t *testing.T) {
	enc, err := EncodeLabel("My Xbox HDD")
	require.NoError(t, err)
	require.Equal(t, byte(0xFE), enc[0])
	require.Equal(t, byte(0xFF), enc[1])

	got, err := DecodeLabel(enc)
	require.NoError(t, err)
	require.Equal(t, "My Xbox HDD", got)
}

func TestDecodeLabelWithoutBOM(t *testing.T) {
	enc, err := EncodeLabel("noBOM")
	require.NoError(t, err)

	got, err := DecodeLabel(enc[2:])
	require.NoError(t, err)
	require.Equal(t, "noBOM", got)
}

func TestDecodeLabelEmpty(t *testing.T) {
	got, err := DecodeLabel(nil)
	require.NoError(t, err)
	require.Equal(t, "", got)
}
