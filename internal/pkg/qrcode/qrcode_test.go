package qrcode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInURL(t *testing.T) {
	assert.Equal(t,
		"https://events.example.edu/api/v1/attendance/scan?secret=abc123",
		CheckInURL("https://events.example.edu/", "abc123"))
}

func TestPNG(t *testing.T) {
	png, err := PNG(CheckInURL("http://localhost:8080", "deadbeef"), 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = PNG("", 128)
	assert.Error(t, err)
}
