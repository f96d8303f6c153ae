package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_Run(t *testing.T) {
	out, err := Exec{}.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestExec_RunIncludesStderr(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), "sh", "-c", "echo no camera >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no camera")
}

func TestExec_Timeout(t *testing.T) {
	_, err := Exec{Timeout: 50 * time.Millisecond}.Run(context.Background(), "sleep", "5")
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	assert.Error(t, Shell(context.Background(), Exec{}, "  "))
	assert.NoError(t, Shell(context.Background(), Exec{}, "true"))
}
