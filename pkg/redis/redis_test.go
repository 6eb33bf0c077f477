package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_InvalidURL(t *testing.T) {
	err := Init(&config.RedisConfig{URL: "http://localhost:6379"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid REDIS_URL")
}

func TestRunLock_UnlockWithoutLease(t *testing.T) {
	lock := NewRunLock(nil, "storefront:migration:lock", time.Minute)
	assert.NoError(t, lock.Unlock(context.Background()))
}
