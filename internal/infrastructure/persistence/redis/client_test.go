package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"short-story-api/internal/config"
)

func TestNewClient_UnreachableServer(t *testing.T) {
	_, err := NewClient(context.Background(), &config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestBuildRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:story:10.0.0.1:/story", BuildRateLimitKey("ratelimit:story", "10.0.0.1", "/story"))
}
