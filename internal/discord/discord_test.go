package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpisodeDetail(t *testing.T) {
	assert.Equal(t, "S01E03", EpisodeDetail(1, 3))
	assert.Equal(t, "S12E110", EpisodeDetail(12, 110))
}
