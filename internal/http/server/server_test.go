package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/incidentauth/internal/config"
	"github.com/dropDatabas3/incidentauth/internal/store/memory"
)

type nopSender struct{}

func (nopSender) Send(context.Context, string, string, string, string) error { return nil }

func testConfig() *config.Config {
	c := config.Default()
	c.Storage.Driver = "memory"
	c.JWT.Issuer = "incidentauth"
	c.JWT.Audience = "incident-web"
	c.JWT.Key = strings.Repeat("w", 32)
	c.Flags.Migrate = true
	return c
}

func TestBuild_Routes(t *testing.T) {
	app, err := Build(context.Background(), testConfig(), Options{DAL: memory.New(), Sender: nopSender{}, Version: "test"})
	require.NoError(t, err)
	defer app.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, app.Handler, time.Second) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/readyz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"ready"`)
	assert.Equal(t, "test", resp.Header.Get("X-Service-Version"))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestBuild_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	app, err := Build(context.Background(), cfg, Options{DAL: memory.New(), Sender: nopSender{}})
	require.NoError(t, err)
	defer app.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Serve(ctx, ln, app.Handler, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
