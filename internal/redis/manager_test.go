package redis_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/luckyroll/casino/internal/redis"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManagerDisabled(t *testing.T) {
	t.Parallel()

	manager := redis.NewManager(&config.Redis{}, zap.NewNop())
	assert.False(t, manager.Enabled())

	_, err := manager.GetClient(redis.RateLimitDBIndex)
	require.ErrorIs(t, err, redis.ErrRedisDisabled)
}

func TestManagerReusesClients(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	host, portStr, found := strings.Cut(mr.Addr(), ":")
	require.True(t, found)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{Enabled: true, Host: host, Port: port}, zap.NewNop())
	defer manager.Close()

	first, err := manager.GetClient(redis.RatingCacheDBIndex)
	require.NoError(t, err)

	second, err := manager.GetClient(redis.RatingCacheDBIndex)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, first.Do(t.Context(), first.B().Set().Key("k").Value("v").Build()).Error())
	assert.Equal(t, "v", mustGet(t, mr, "k"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()

	v, err := mr.DB(redis.RatingCacheDBIndex).Get(key)
	require.NoError(t, err)

	return v
}
