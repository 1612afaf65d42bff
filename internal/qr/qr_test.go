package qr

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidHexColor(t *testing.T) {
	assert.True(t, ValidHexColor("#000000"))
	assert.True(t, ValidHexColor("#FFD700"))
	assert.False(t, ValidHexColor("000000"))
	assert.False(t, ValidHexColor("#fff"))
	assert.False(t, ValidHexColor("#gggggg"))
	assert.False(t, ValidHexColor(""))
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#2196F3")
	require.NoError(t, err)
	assert.EqualValues(t, 0x21, c.R)
	assert.EqualValues(t, 0x96, c.G)
	assert.EqualValues(t, 0xF3, c.B)
	assert.EqualValues(t, 0xff, c.A)

	_, err = ParseHexColor("blue")
	assert.Error(t, err)
}

func TestTerminal(t *testing.T) {
	s, err := Terminal("https://example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, s)
}

func TestSnapshotBase64IsPNG(t *testing.T) {
	b64, err := SnapshotBase64("https://example.com", "#000000", "#ffffff")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	require.Greater(t, len(raw), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestSnapshotBase64RejectsBadColors(t *testing.T) {
	_, err := SnapshotBase64("x", "red", "#ffffff")
	assert.Error(t, err)
	_, err = SnapshotBase64("x", "#000000", "white")
	assert.Error(t, err)
}
