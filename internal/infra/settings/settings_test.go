package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Host    string        `mapstructure:"host" validate:"required"`
	Port    int           `mapstructure:"port" default:"445" validate:"gte=1,lte=65535"`
	Timeout time.Duration `mapstructure:"timeout" default:"5s"`
	Retries int           `mapstructure:"retries" default:"3" validate:"gte=0"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]any
		want    sample
		wantErr string
	}{
		{
			name: "Defaults applied",
			in:   map[string]any{"host": "printer.local"},
			want: sample{Host: "printer.local", Port: 445, Timeout: 5 * time.Second, Retries: 3},
		},
		{
			name: "Weak typing and durations",
			in:   map[string]any{"host": "printer.local", "port": "1445", "timeout": "250ms"},
			want: sample{Host: "printer.local", Port: 1445, Timeout: 250 * time.Millisecond, Retries: 3},
		},
		{
			name: "Explicit zero kept",
			in:   map[string]any{"host": "printer.local", "retries": 0, "timeout": "0s"},
			want: sample{Host: "printer.local", Port: 445, Retries: 0},
		},
		{name: "Missing required", in: map[string]any{}, wantErr: "Host"},
		{name: "Out of range", in: map[string]any{"host": "x", "port": 70000}, wantErr: "Port"},
		{name: "Unknown key", in: map[string]any{"host": "x", "colour": "red"}, wantErr: "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := Decode(tt.in, &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_NilMap(t *testing.T) {
	var got struct {
		Width int `mapstructure:"width" default:"640"`
	}
	require.NoError(t, Decode(nil, &got))
	assert.Equal(t, 640, got.Width)
}
