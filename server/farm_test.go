package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/confdoc/server"
)

func text(s string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(s)) })
}

func fetch(t *testing.T, addr net.Addr) string {
	t.Helper()
	resp, err := http.Get("http://" + addr.String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestFarm_ServesAllListeners(t *testing.T) {
	f := server.NewFarm(zerolog.Nop())
	require.NoError(t, f.Listen("one", "127.0.0.1:0", text("1")))
	require.NoError(t, f.Listen("two", "127.0.0.1:0", text("2")))
	assert.Nil(t, f.Addr("three"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()

	assert.Equal(t, "1", fetch(t, f.Addr("one")))
	assert.Equal(t, "2", fetch(t, f.Addr("two")))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("farm did not stop")
	}
}

func TestFarm_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	f := server.NewFarm(zerolog.Nop())
	err = f.Listen("busy", ln.Addr().String(), text(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen busy on ")
}

func TestFarm_FailureStopsOthers(t *testing.T) {
	f := server.NewFarm(zerolog.Nop())
	require.NoError(t, f.Listen("ok", "127.0.0.1:0", text("ok")))

	broken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, broken.Close())
	f.Add("broken", broken, text(""))

	select {
	case err := <-serveAsync(f):
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken server: ")
	case <-time.After(10 * time.Second):
		t.Fatal("farm did not stop")
	}
}

func TestFarm_Empty(t *testing.T) {
	assert.Error(t, server.NewFarm(zerolog.Nop()).Serve(context.Background()))
}

func serveAsync(f *server.Farm) <-chan error {
	done := make(chan error, 1)
	go func() { done <- f.Serve(context.Background()) }()
	return done
}
