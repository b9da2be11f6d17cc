package ui

import (
	"testing"
	"time"

	"github.com/nautilus-cli/nautilus/internal/retry"
	"github.com/stretchr/testify/assert"
)

func TestRenderEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   retry.Event
		want string
	}{
		{
			name: "server error with status",
			ev: retry.Event{
				Class:       retry.ServerError,
				Status:      500,
				Attempt:     2,
				MaxAttempts: 3,
				NextDelay:   2 * time.Second,
			},
			want: "Server error (500). Retrying in 2.0s... (2/3)",
		},
		{
			name: "timeout has no status",
			ev: retry.Event{
				Class:       retry.Timeout,
				Attempt:     1,
				MaxAttempts: 3,
				NextDelay:   time.Second,
			},
			want: "Timeout. Retrying in 1.0s... (1/3)",
		},
		{
			name: "sub-second delay",
			ev: retry.Event{
				Class:       retry.NetworkError,
				Attempt:     1,
				MaxAttempts: 3,
				NextDelay:   500 * time.Millisecond,
			},
			want: "Network error. Retrying in 0.5s... (1/3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderEvent(tt.ev))
		})
	}
}
