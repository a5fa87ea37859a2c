package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/luckyroll/casino/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestContextSleep(t *testing.T) {
	t.Parallel()

	assert.Equal(t, utils.SleepCompleted, utils.ContextSleep(t.Context(), 10*time.Millisecond))
	assert.Equal(t, utils.SleepCompleted, utils.ContextSleep(t.Context(), 0))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Equal(t, utils.SleepCancelled, utils.ContextSleep(ctx, time.Hour))
}
