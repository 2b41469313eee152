package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTest(t *testing.T, h http.Handler, timeout time.Duration) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	s := &Server{
		Addr:            "127.0.0.1:0",
		Handler:         h,
		ShutdownTimeout: timeout,
		OnStarted:       []func(net.Addr){func(a net.Addr) { addrCh <- a }},
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case a := <-addrCh:
		return "http://" + a.String(), cancel, done
	case err := <-done:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return "", cancel, done
}

func TestRunServesAndStopsOnCancel(t *testing.T) {
	base, cancel, done := startTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), time.Second)

	resp, err := http.Get(base + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunBindConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := &Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler(), ShutdownTimeout: time.Second}
	err = s.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func TestShutdownTimeoutCancelsRequestContext(t *testing.T) {
	entered := make(chan struct{})
	cancelled := make(chan struct{})
	base, cancel, done := startTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
		close(cancelled)
	}), 50*time.Millisecond)

	go func() {
		resp, err := http.Get(base + "/")
		if err == nil {
			resp.Body.Close()
		}
	}()

	<-entered
	cancel()

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("request context was not cancelled")
	}
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
