package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	require := require.New(t)
	t.Setenv("KVSTORE_OTEL_ENDPOINT", "")
	t.Setenv("KVSTORE_OTEL_ENABLED", "")
	t.Setenv("KVSTORE_OTEL_SAMPLE_RATIO", "")

	cfg, err := LoadConfig()
	require.NoError(err)
	require.Equal(Config{Enabled: true, SampleRatio: 1}, cfg)
	require.False(cfg.active())
}

func TestLoadConfigFromEnv(t *testing.T) {
	require := require.New(t)
	t.Setenv("KVSTORE_OTEL_ENDPOINT", "http://127.0.0.1:4318")
	t.Setenv("KVSTORE_OTEL_ENABLED", "false")
	t.Setenv("KVSTORE_OTEL_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfig()
	require.NoError(err)
	require.Equal("http://127.0.0.1:4318", cfg.Endpoint)
	require.False(cfg.Enabled)
	require.Equal(0.25, cfg.SampleRatio)
	require.False(cfg.active())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("KVSTORE_OTEL_ENABLED", "maybe")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "parse env:")
}

func TestSetupDisabled(t *testing.T) {
	require := require.New(t)

	for _, cfg := range []Config{
		{Enabled: true, SampleRatio: 1},
		{Endpoint: "http://127.0.0.1:4318", Enabled: false, SampleRatio: 1},
	} {
		shutdown, err := Setup(context.Background(), "kvstore-test", cfg)
		require.NoError(err)
		require.NoError(shutdown(context.Background()))
	}
}

func TestSetupRejectsSampleRatio(t *testing.T) {
	_, err := Setup(context.Background(), "kvstore-test",
		Config{Endpoint: "http://127.0.0.1:4318", Enabled: true, SampleRatio: 2})
	require.ErrorContains(t, err, "sample ratio")
}

func TestSetupWithEndpoint(t *testing.T) {
	require := require.New(t)

	shutdown, err := Setup(context.Background(), "kvstore-test",
		Config{Endpoint: "http://127.0.0.1:4318", Enabled: true, SampleRatio: 1})
	require.NoError(err)
	require.NotNil(shutdown)
	require.NoError(shutdown(context.Background()))
}
