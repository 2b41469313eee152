package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepServiceServesWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--config", dir, "--env-file", dir + "/.env", "--host", "127.0.0.1", "--port", "0",
		"--set", "SECURITY_AUTOCONFIG=true", "--set", "SHUTDOWN_TIMEOUT=200ms"}

	addrCh := make(chan net.Addr, 1)
	a := newApplication().OnStarted(func(addr net.Addr) { addrCh <- addr })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Execute(ctx, args) }()

	var base string
	select {
	case addr := <-addrCh:
		base = "http://" + addr.String()
	case err := <-done:
		t.Fatalf("exited before ready: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("not ready in time")
	}

	resp, err := http.Get(base + "/api/sleep/10")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"status":200,"data":{"sleptMs":10}}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Execute did not return after cancel")
	}
}

func TestSleepServiceRouteList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newApplication().Output(&out).Execute(context.Background(), []string{"route:list"}))

	assert.Regexp(t, `GET\s+/api/sleep/\{ms\}\s+sleep`, out.String())
}
