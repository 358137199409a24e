package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/riskibarqy/esports-fantasy/internal/config"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_AllDisabled(t *testing.T) {
	cfg := config.Config{
		ServiceName:    "esports-fantasy-ingest",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	tel, err := Start(cfg, logging.NewNop(), Options{Profiling: true})
	require.NoError(t, err)
	assert.Empty(t, tel.PprofURL())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestStart_TracingWithoutDSNIsNoop(t *testing.T) {
	tel, err := Start(config.Config{UptraceEnabled: true}, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, tel.stops)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestStart_PprofServesAndStops(t *testing.T) {
	cfg := config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}

	tel, err := Start(cfg, logging.NewNop(), Options{Profiling: true})
	require.NoError(t, err)
	require.NotEmpty(t, tel.PprofURL())

	resp, err := http.Get(tel.PprofURL() + "cmdline")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, tel.Shutdown(context.Background()))
	_, err = http.Get(tel.PprofURL() + "cmdline")
	assert.Error(t, err)
}

func TestStart_CLISkipsPprof(t *testing.T) {
	cfg := config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}

	tel, err := Start(cfg, logging.NewNop(), Options{Profiling: false})
	require.NoError(t, err)
	assert.Empty(t, tel.PprofURL())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdown_NilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}
