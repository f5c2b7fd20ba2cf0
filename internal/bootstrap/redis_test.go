package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/profile-portal/config"
)

func TestConnectRedis_Direct(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, uri := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		client, err := ConnectRedis(context.Background(), RedisOptions{Config: config.RedisConfig{URI: uri}})
		require.NoError(t, err, uri)
		require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		require.NoError(t, client.Close())
	}
	mr.CheckGet(t, "k", "v")
}

func TestConnectRedis_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(context.Background(), RedisOptions{Config: config.RedisConfig{URI: addr}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestNewRedisClient_ConfigErrors(t *testing.T) {
	tests := map[string]config.RedisConfig{
		"empty uri":          {URI: "  "},
		"bad url":            {URI: "redis://:bad port"},
		"sentinel no nodes":  {UseSentinel: true, SentinelNodes: []string{" "}, SentinelMasterName: "m"},
		"sentinel no master": {UseSentinel: true, SentinelNodes: []string{"s:26379"}},
		"cluster no address": {UseCluster: true},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := newRedisClient(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewRedisClient_Descriptions(t *testing.T) {
	client, desc, err := newRedisClient(config.RedisConfig{UseCluster: true, ClusterNodes: []string{" r1:6379 ", "", "r2:6379"}})
	require.NoError(t, err)
	assert.Equal(t, "cluster:r1:6379,r2:6379", desc)
	require.NoError(t, client.Close())

	client, desc, err = newRedisClient(config.RedisConfig{UseSentinel: true, SentinelNodes: []string{"s:26379"}, SentinelMasterName: "primary"})
	require.NoError(t, err)
	assert.Equal(t, "sentinel:primary", desc)
	require.NoError(t, client.Close())
}

func TestClusterFallbackFromURI(t *testing.T) {
	fb, err := clusterFallbackFromURI("", "pw")
	require.NoError(t, err)
	assert.Equal(t, clusterFallback{password: "pw"}, fb)

	fb, err = clusterFallbackFromURI("r1:6379", "pw")
	require.NoError(t, err)
	assert.Equal(t, "r1:6379", fb.addr)
	assert.Equal(t, "pw", fb.password)

	fb, err = clusterFallbackFromURI("rediss://user:secret@r1:6380", "pw")
	require.NoError(t, err)
	assert.Equal(t, "r1:6380", fb.addr)
	assert.Equal(t, "user", fb.username)
	assert.Equal(t, "secret", fb.password)
	assert.NotNil(t, fb.tls)
}

func TestRedactAddr(t *testing.T) {
	assert.Equal(t, "redis://r1:6379/0", redactAddr("redis://user:secret@r1:6379/0"))
	assert.Equal(t, "r1:6379", redactAddr("secret@r1:6379"))
	assert.Equal(t, "cluster:r1:6379", redactAddr("cluster:r1:6379"))
}
