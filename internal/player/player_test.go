package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds only", 42 * time.Second, "00:00:42"},
		{"minutes roll over", 41*time.Minute + 7*time.Second, "00:41:07"},
		{"hours roll over", 2*time.Hour + 5*time.Minute + 9*time.Second, "02:05:09"},
		{"negative clamps to zero", -5 * time.Second, "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPosition(tt.d))
		})
	}
}

func TestParsePosition(t *testing.T) {
	d, err := ParsePosition("01:30:15")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+30*time.Minute+15*time.Second, d)
}

func TestParsePositionRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00:00", "00:41:07", "12:59:59"} {
		d, err := ParsePosition(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatPosition(d))
	}
}

func TestParsePositionRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "1:99:00", "00:00:-4"} {
		_, err := ParsePosition(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestNewSocketPathIsUnique(t *testing.T) {
	a := newSocketPath()
	time.Sleep(time.Microsecond)
	b := newSocketPath()
	assert.NotEqual(t, a, b)
}
