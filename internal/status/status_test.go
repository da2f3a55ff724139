package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

func TestLogIndicator(t *testing.T) {
	l := &Log{}
	require.NoError(t, l.Fill(types.StatusFetching))
	assert.Equal(t, types.StatusFetching, l.Current())
	require.NoError(t, l.Fill(types.StatusOff))
	assert.Equal(t, types.StatusOff, l.Current())
}

func TestName(t *testing.T) {
	assert.Equal(t, "fetching", Name(types.StatusFetching))
	assert.Equal(t, "no-connection", Name(types.StatusHTTPError))
	assert.Equal(t, "off", Name(types.StatusOff))
}

func TestOpen(t *testing.T) {
	ind, err := Open(types.StatusConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, ind)

	ind, err = Open(types.StatusConfig{Driver: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Log{}, ind)

	_, err = Open(types.StatusConfig{Driver: "neopixel"}, nil)
	assert.Error(t, err)

	_, err = Open(types.StatusConfig{Driver: "gpiocdev", Pins: []int{1, 2}}, nil)
	assert.Error(t, err)
}
