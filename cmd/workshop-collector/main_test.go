package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/workshop-collector/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no key in the environment.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	for _, name := range []string{"STEAM_WEB_API", "WORKSHOP_KEY", "WORKSHOP_APP_ID", "WORKSHOP_OUTPUT", "WORKSHOP_MINIFY"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func newMock(t *testing.T) *testutil.MockSteam {
	t.Helper()

	mock := testutil.NewMockSteam()
	t.Cleanup(mock.Close)
	mock.SetPage("*", 2, []string{`{"id":1}`}, "next")
	mock.SetPage("next", 2, []string{`{"id":2}`}, "")
	return mock
}

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()

	var out, errOut bytes.Buffer
	code := execute(context.Background(), append([]string{"--log-level", "error"}, args...), &out, &errOut)
	return code, errOut.String()
}

func TestExecute_WritesIndentedExport(t *testing.T) {
	dir := isolate(t)
	mock := newMock(t)

	code, stderr := run(t, "--key", "secret", "--app-id", "42", "--base-url", mock.URL(), "--output", "items")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(filepath.Join(dir, "items.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1\n  },\n  {\n    \"id\": 2\n  }\n]", string(data))

	requests := mock.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "secret", requests[0].Get("key"))
	assert.Equal(t, "42", requests[0].Get("appid"))
	assert.Equal(t, "next", requests[1].Get("cursor"))
}

func TestExecute_DefaultFilename(t *testing.T) {
	dir := isolate(t)
	mock := newMock(t)

	code, stderr := run(t, "--key", "k", "--base-url", mock.URL())
	require.Equal(t, 0, code, stderr)

	_, err := os.Stat(filepath.Join(dir, "workshopItems.json"))
	assert.NoError(t, err)
	assert.Equal(t, "233610", mock.Requests()[0].Get("appid"))
}

func TestExecute_MinifyFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bare flag", args: []string{"--minify"}},
		{name: "explicit value", args: []string{"--minify=true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			mock := newMock(t)

			args := append([]string{"--key", "k", "--base-url", mock.URL(), "-o", "out.json"}, tt.args...)
			code, stderr := run(t, args...)
			require.Equal(t, 0, code, stderr)

			data, err := os.ReadFile(filepath.Join(dir, "out.json"))
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1},{"id":2}]`, string(data))
		})
	}
}

func TestExecute_ValidationFailsBeforeRequests(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{name: "missing key", args: nil, message: "missing API key"},
		{name: "empty app id", args: []string{"--key", "k", "--app-id", ""}, message: "missing app id"},
		{name: "bad app id", args: []string{"--key", "k", "--app-id", "subnautica"}, message: "invalid app id"},
		{name: "bad minify", args: []string{"--key", "k", "--minify=perhaps"}, message: "invalid minify value"},
		{name: "bad log level", args: []string{"--key", "k", "--log-level", "chatty"}, message: "logger config validation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			mock := newMock(t)

			args := append([]string{"--base-url", mock.URL()}, tt.args...)
			code, stderr := run(t, args...)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.message)
			assert.Equal(t, 0, mock.RequestCount())
		})
	}
}

func TestExecute_KeyFromEnvironment(t *testing.T) {
	isolate(t)
	mock := newMock(t)
	t.Setenv("STEAM_WEB_API", "from-env")

	code, stderr := run(t, "--base-url", mock.URL())
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "from-env", mock.Requests()[0].Get("key"))
}

func TestExecute_FlagOverridesEnvironment(t *testing.T) {
	isolate(t)
	mock := newMock(t)
	t.Setenv("WORKSHOP_APP_ID", "7")

	code, stderr := run(t, "--key", "k", "--app-id", "8", "--base-url", mock.URL())
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "8", mock.Requests()[0].Get("appid"))
}

func TestExecute_DotEnvFiles(t *testing.T) {
	dir := isolate(t)
	mock := newMock(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STEAM_WEB_API=base-key\nWORKSHOP_APP_ID=77\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("STEAM_WEB_API=local-key\n"), 0o600))

	code, stderr := run(t, "--base-url", mock.URL())
	require.Equal(t, 0, code, stderr)

	first := mock.Requests()[0]
	assert.Equal(t, "local-key", first.Get("key"))
	assert.Equal(t, "77", first.Get("appid"))
}

func TestExecute_ConfigFile(t *testing.T) {
	dir := isolate(t)
	mock := newMock(t)

	config := "key: file-key\napp-id: \"99\"\noutput: from-config\nbase-url: " + mock.URL() + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workshop-collector.yaml"), []byte(config), 0o600))

	code, stderr := run(t)
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, "file-key", mock.Requests()[0].Get("key"))
	assert.Equal(t, "99", mock.Requests()[0].Get("appid"))
	_, err := os.Stat(filepath.Join(dir, "from-config.json"))
	assert.NoError(t, err)
}

func TestExecute_MissingExplicitConfigFile(t *testing.T) {
	isolate(t)

	code, stderr := run(t, "--key", "k", "--config", "nope.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "read config file")
}

func TestExecute_InvalidResponseWritesNothing(t *testing.T) {
	dir := isolate(t)
	mock := testutil.NewMockSteam()
	defer mock.Close()
	mock.SetRawPage("*", `{"response":{"total":1}}`)

	code, stderr := run(t, "--key", "k", "--base-url", mock.URL())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid response")

	_, err := os.Stat(filepath.Join(dir, "workshopItems.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecute_RedisCache(t *testing.T) {
	isolate(t)
	mock := newMock(t)
	mr := miniredis.RunT(t)

	args := []string{"--key", "k", "--base-url", mock.URL(), "--redis-url", "redis://" + mr.Addr()}

	code, stderr := run(t, args...)
	require.Equal(t, 0, code, stderr)
	code, stderr = run(t, args...)
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, 2, mock.RequestCount())

	keys := mr.Keys()
	assert.NotEmpty(t, keys)
	for _, key := range keys {
		assert.NotContains(t, key, ":k:")
	}
}

func TestExecute_RedisUnavailable(t *testing.T) {
	isolate(t)

	code, stderr := run(t, "--key", "k", "--redis-url", "redis://127.0.0.1:1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to connect to Redis")
}
