package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDriver_Edges(t *testing.T) {
	d := NewMockDriver()
	require.NoError(t, d.SetupPin(23, InputPullUp))
	require.NoError(t, d.WatchFalling(23))

	edge, err := d.FallingEdge(23)
	require.NoError(t, err)
	assert.False(t, edge)

	d.Press(23)
	edge, _ = d.FallingEdge(23)
	assert.True(t, edge)
	edge, _ = d.FallingEdge(23)
	assert.False(t, edge, "edges are cleared once read")

	level, _ := d.ReadPin(23)
	assert.Equal(t, High, level)
}

func TestMockDriver_Writes(t *testing.T) {
	d := NewMockDriver()
	require.NoError(t, d.SetupPin(18, Output))
	require.NoError(t, d.WritePin(18, High))
	require.NoError(t, d.WritePin(18, Low))

	assert.Equal(t, []PinWrite{{18, High}, {18, Low}}, d.Writes())
	assert.Equal(t, Low, d.Level(18))
	mode, ok := d.Mode(18)
	assert.True(t, ok)
	assert.Equal(t, Output, mode)

	require.NoError(t, d.Close())
	assert.True(t, d.Closed())
}

func TestNewDriver_Mock(t *testing.T) {
	d, err := NewDriver(true)
	require.NoError(t, err)
	assert.IsType(t, &MockDriver{}, d)
}

func TestPinMode_String(t *testing.T) {
	assert.Equal(t, "input_pullup", InputPullUp.String())
	assert.Equal(t, "unknown", PinMode(9).String())
}
