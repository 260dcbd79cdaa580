package boot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "boot-test", Output: io.Discard})
}

func TestConnectRedisOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{URL: "redis://" + mr.Addr()}}

	b, err := Connect(context.Background(), cfg, testLogger(), Needs{Redis: true})
	require.NoError(t, err)
	assert.Nil(t, b.DB)
	require.NotNil(t, b.Redis)
	assert.NoError(t, b.Redis.Ping(context.Background()))
	assert.NoError(t, b.Close())
}

func TestConnectFailureReportsCause(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{URL: "redis://" + mr.Addr()}}

	_, err := Connect(context.Background(), cfg, testLogger(), Needs{DB: true, Redis: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestBackendsCloseOnEmptyValue(t *testing.T) {
	assert.NoError(t, (&Backends{}).Close())
}

func TestDone(t *testing.T) {
	assert.True(t, Done(nil))
	assert.True(t, Done(fmt.Errorf("serve: %w", context.Canceled)))
	assert.False(t, Done(errors.New("listen: address in use")))
}
