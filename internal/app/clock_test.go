package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextAlignedTick_FromBeforeBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 2, 0, 0, time.UTC)
	next := nextAlignedTick(now, 5*time.Minute, 0)
	assert.Equal(t, time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC), next)
}

func TestNextAlignedTick_WithOffset(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	next := nextAlignedTick(now, 5*time.Minute, 30*time.Second)
	assert.Equal(t, time.Date(2026, 1, 1, 10, 0, 30, 0, time.UTC), next)
}

func TestNextAlignedTick_OffsetAlreadyPassedRollsToNextInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 45, 0, time.UTC)
	next := nextAlignedTick(now, 5*time.Minute, 30*time.Second)
	assert.Equal(t, time.Date(2026, 1, 1, 10, 5, 30, 0, time.UTC), next)
}
