package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/confdoc"
	"github.com/reoring/confdoc/app"
	"github.com/reoring/confdoc/config"
	"github.com/reoring/confdoc/dsl"
)

var mySchema = config.Extend("myapp").
	Field("some_value", dsl.Int()).Default(1).
	Field("another", dsl.String()).Default("abc").
	MustBuild()

type recordCmd struct {
	name string
	env  *app.Env
}

func (c *recordCmd) Name() string  { return c.name }
func (c *recordCmd) Short() string { return "records its environment" }
func (c *recordCmd) Run(_ context.Context, env *app.Env) error {
	c.env = env
	return nil
}

func newApp(t *testing.T) (*app.Application, *bytes.Buffer) {
	t.Helper()
	a := app.New("myapp", mySchema)
	a.EnvPrefix = "MYAPP_TEST"
	out := &bytes.Buffer{}
	a.SetOutput(out, io.Discard, io.Discard)
	return a, out
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAddSubcommand_Duplicate(t *testing.T) {
	a, _ := newApp(t)
	require.NoError(t, a.AddSubcommand(&recordCmd{name: "x"}))
	err := a.AddSubcommand(&recordCmd{name: "x"})
	require.Error(t, err)
	assert.Equal(t, "subcommand x has already been registered", err.Error())
	assert.Equal(t, []string{"x"}, a.Subcommands())
}

func TestSplitArgs(t *testing.T) {
	own, pass := app.SplitArgs([]string{"run", "-c", "f.yaml", "--", "a", "--", "b"})
	assert.Equal(t, []string{"run", "-c", "f.yaml"}, own)
	assert.Equal(t, []string{"a", "--", "b"}, pass)

	own, pass = app.SplitArgs([]string{"run"})
	assert.Equal(t, []string{"run"}, own)
	assert.Nil(t, pass)
}

func TestRun_Subcommand(t *testing.T) {
	a, _ := newApp(t)
	cmd := &recordCmd{name: "record"}
	a.Initialize = func(a *app.Application) error { return a.AddSubcommand(cmd) }

	path := writeConfig(t, "some_value: 10\nanother: a value\n")
	err := a.Run(context.Background(), []string{"record", "-c", path, "pos", "--", "--flag", "x"})
	require.NoError(t, err)
	require.NotNil(t, cmd.env)

	v, _ := cmd.env.Config().Int("some_value")
	s, _ := cmd.env.Config().String("another")
	assert.Equal(t, int64(10), v)
	assert.Equal(t, "a value", s)
	assert.Equal(t, []string{"pos"}, cmd.env.Args)
	assert.Equal(t, []string{"--flag", "x"}, cmd.env.Passthrough)
	assert.Same(t, a, cmd.env.App)
	assert.NotNil(t, cmd.env.Metrics)

	assert.Equal(t, []string{"record", "server", "show", "validate"}, a.Subcommands())
}

func TestRun_DefaultsWithoutConfig(t *testing.T) {
	a, _ := newApp(t)
	cmd := &recordCmd{name: "record"}
	require.NoError(t, a.AddSubcommand(cmd))
	require.NoError(t, a.Run(context.Background(), []string{"record"}))

	v, _ := cmd.env.Config().Int("some_value")
	port, _ := cmd.env.Config().Int("http.port")
	assert.Equal(t, int64(1), v)
	assert.Equal(t, int64(5000), port)
}

func TestRun_InitializeError(t *testing.T) {
	a, _ := newApp(t)
	a.Initialize = func(*app.Application) error { return errors.New("nope") }
	err := a.Run(context.Background(), []string{"validate"})
	require.Error(t, err)
	assert.Equal(t, "initialize myapp: nope", err.Error())
}

func TestRun_ConfigErrors(t *testing.T) {
	a, _ := newApp(t)

	err := a.Run(context.Background(), []string{"validate", "-c", writeConfig(t, "some_value: abc\n")})
	var cerr *config.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, config.Invalid, cerr.Kind)
	assert.True(t, errors.Is(err, confdoc.ErrValidation))

	err = a.Run(context.Background(), []string{"validate", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, config.Unreadable, cerr.Kind)

	plain := app.New("plain", confdoc.Define("plain").Field("a").Default(1).MustBuild())
	plain.SetOutput(io.Discard, io.Discard, io.Discard)
	err = plain.Run(context.Background(), []string{"validate"})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, config.NotConfiguration, cerr.Kind)
}

func TestRun_UnknownSubcommand(t *testing.T) {
	a, _ := newApp(t)
	assert.Error(t, a.Run(context.Background(), []string{"nope"}))
}

func TestValidate(t *testing.T) {
	a, out := newApp(t)
	path := writeConfig(t, "some_value: 3\n")
	require.NoError(t, a.Run(context.Background(), []string{"validate", "-c", path}))
	assert.Contains(t, out.String(), "config.yaml: configuration is valid")
}

func TestShow(t *testing.T) {
	path := writeConfig(t, "some_value: 3\n")

	a, out := newApp(t)
	require.NoError(t, a.Run(context.Background(), []string{"show", "-c", path}))
	assert.Contains(t, out.String(), "some_value: 3\n")
	assert.Contains(t, out.String(), "another: abc\n")

	a, out = newApp(t)
	require.NoError(t, a.Run(context.Background(), []string{"show", "-c", path, "--format", "json"}))
	var m map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.EqualValues(t, 3, m["some_value"])

	a, out = newApp(t)
	require.NoError(t, a.Run(context.Background(), []string{"show", "-f", "schema"}))
	assert.Contains(t, out.String(), `"some_value"`)
	assert.Contains(t, out.String(), `"$schema"`)

	a, _ = newApp(t)
	assert.Error(t, a.Run(context.Background(), []string{"show", "-f", "toml"}))
}

func TestOverrideBuiltin(t *testing.T) {
	a, _ := newApp(t)
	cmd := &recordCmd{name: "server"}
	require.NoError(t, a.AddSubcommand(cmd))
	require.NoError(t, a.Run(context.Background(), []string{"server"}))
	assert.NotNil(t, cmd.env)
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return strconv.Itoa(port)
}

func TestServerSubcommand(t *testing.T) {
	mainPort, adminPort := freePort(t), freePort(t)
	t.Setenv("MYAPP_TEST_HTTP_PORT", mainPort)
	t.Setenv("MYAPP_TEST_HTTP_ADMINPORT", adminPort)

	a, _ := newApp(t)
	a.Routes = func(r chi.Router, env *app.Env) {
		r.Get("/value", func(w http.ResponseWriter, _ *http.Request) {
			v, _ := env.Config().Int("some_value")
			_, _ = w.Write([]byte(strconv.FormatInt(v, 10)))
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, []string{"server"}) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + mainPort + "/value")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "1", body)

	resp, err := http.Get("http://127.0.0.1:" + adminPort + "/metrics")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), `confdoc_loads_total{format="defaults",result="ok"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
