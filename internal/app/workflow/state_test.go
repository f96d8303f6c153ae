package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateID_String(t *testing.T) {
	tests := []struct {
		id   StateID
		want string
	}{
		{StateNone, "none"},
		{StateWaitingForCamera, "waiting_for_camera"},
		{StateCountdown, "countdown"},
		{StateAdmin, "admin"},
		{StateID(99), "state(99)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.id.String())
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "photo_taken", EventPhotoTaken.String())
	assert.Equal(t, "unknown", EventType(42).String())
}
