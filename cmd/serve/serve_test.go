package serve

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"ndjaka/mineral-tax/internal/config"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
}

func TestNewServer(t *testing.T) {
	isolate(t)
	c, err := container.NewContainerWithLogger(config.Default(), logging.NewMockLogger())
	require.NoError(t, err)

	srv := NewServer(c, "")
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Nil(t, srv.ErrorLog)

	srv = NewServer(c, "127.0.0.1:9090")
	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
}

func TestNewServer_LogrusErrorLog(t *testing.T) {
	isolate(t)
	c, err := container.NewContainer(config.Default())
	require.NoError(t, err)

	srv := NewServer(c, "")
	assert.NotNil(t, srv.ErrorLog)
}

func TestRun_StopsOnCancel(t *testing.T) {
	isolate(t)
	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithLogger(config.Default(), logger)
	require.NoError(t, err)

	// Reserve a free port, then release it for the server.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, c, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
