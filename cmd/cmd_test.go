package cmd_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/USA-RedDragon/germ-rpctest/cmd"
	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/devnode"
	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/USA-RedDragon/germ-rpctest/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseFlags = []string{"--config", "", "--env_file", "", "--log.level", "error"}

func devNodeURL(t *testing.T) string {
	t.Helper()
	genesis, err := keys.ParsePrivateKey(config.DefaultGenesisKey)
	require.NoError(t, err)
	cfg := &config.Config{Log: config.Log{Level: config.LogLevelError}}
	srv := httptest.NewServer(devnode.NewRouter(cfg, devnode.New(genesis)))
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	baseCmd := cmd.NewCommand("testing", "default")
	baseCmd.SetOut(&out)
	baseCmd.SetErr(&out)
	baseCmd.SetArgs(append(append([]string{}, args...), baseFlags...))
	err := baseCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDefault(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	textfile := filepath.Join(dir, "rpctest.prom")

	out, err := execute(t,
		"--node.url", devNodeURL(t),
		"--report.directory", dir,
		"--metrics.textfile", textfile,
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "OK\n")

	report, err := os.ReadFile(filepath.Join(dir, config.DefaultReportName))
	require.NoError(t, err)
	assert.Equal(t, out, string(report))

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "rpctest_runs_total")
}

func TestCompressedReport(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	out, err := execute(t,
		"--node.url", devNodeURL(t),
		"--report.directory", dir,
		"--report.compress",
		"--suite.run", "block_count,key_create",
	)
	require.NoError(t, err, out)

	store, err := storage.NewStorage(context.Background(), &config.Config{Report: config.Report{
		Driver:    config.ReportDriverFilesystem,
		Directory: dir,
	}})
	require.NoError(t, err)
	defer store.Close()

	report, err := storage.ReadReport(store, config.DefaultReportName+storage.CompressedSuffix)
	require.NoError(t, err)
	assert.Equal(t, out, string(report))
	assert.Contains(t, out, "Ran 2 cases")
}

func TestSuiteFailed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unknown command"}`))
	}))
	t.Cleanup(srv.Close)

	out, err := execute(t,
		"--node.url", srv.URL,
		"--report.directory", t.TempDir(),
		"--suite.run", "block_count",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmd.ErrSuiteFailed), err)
	assert.Contains(t, out, "FAILED (failures=0, errors=1, skipped=0)")
}

func TestUnknownCase(t *testing.T) {
	t.Parallel()
	_, err := execute(t,
		"--node.url", devNodeURL(t),
		"--report.directory", t.TempDir(),
		"--suite.run", "does_not_exist",
	)
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := execute(t, "--node.url", "localhost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidNodeURL), err)
}

func TestCall(t *testing.T) {
	t.Parallel()
	url := devNodeURL(t)

	out, err := execute(t, "call", "block_count", "--node.url", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"count": "1"`)

	out, err = execute(t, "call", "account_balance", "account="+config.DefaultGenesisAccount, "--node.url", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"pending": "0"`)

	out, err = execute(t, "call", "wallet_create", "--node.url", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"wallet"`)

	// the node reports errors in the body
	_, err = execute(t, "call", "nope", "--node.url", url)
	assert.Error(t, err)

	_, err = execute(t, "call", "block_count", "oops", "--node.url", url)
	assert.True(t, errors.Is(err, cmd.ErrInvalidParam), err)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	database := filepath.Join(dir, "history.db")
	url := devNodeURL(t)

	for i := 0; i < 2; i++ {
		out, err := execute(t,
			"--node.url", url,
			"--report.directory", dir,
			"--report.name", fmt.Sprintf("run-%d.txt", i),
			"--suite.run", "block_count",
			"--history.enabled",
			"--history.database.database", database,
		)
		require.NoError(t, err, out)
	}

	out, err := execute(t, "history", "--history.database.database", database)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "OK")
	assert.Contains(t, lines[1], "127.0.0.1")
	newest := strings.Fields(lines[1])[0]
	oldest := strings.Fields(lines[2])[0]

	out, err = execute(t, "history", "show", newest, "--history.database.database", database)
	require.NoError(t, err)
	assert.Contains(t, out, "Report: run-1.txt")
	assert.Contains(t, out, "block_count")
	assert.Contains(t, out, "PASS")

	_, err = execute(t, "history", "show", "not-a-uuid", "--history.database.database", database)
	assert.Error(t, err)

	out, err = execute(t, "history", "case", "block_count", "--history.database.database", database)
	require.NoError(t, err)
	assert.Contains(t, out, newest)
	assert.Contains(t, out, oldest)

	out, err = execute(t, "history", "prune",
		"--history.retain", "1",
		"--history.database.database", database,
		"--report.directory", dir,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 runs")
	_, err = os.Stat(filepath.Join(dir, "run-0.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	out, err = execute(t, "history", "--history.database.database", database)
	require.NoError(t, err)
	assert.Contains(t, out, newest)
	assert.NotContains(t, out, oldest)
}

func TestHistoryRetainOnRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	database := filepath.Join(dir, "history.db")
	url := devNodeURL(t)

	for i := 0; i < 3; i++ {
		out, err := execute(t,
			"--node.url", url,
			"--report.directory", dir,
			"--suite.run", "block_count",
			"--history.enabled",
			"--history.retain", "2",
			"--history.database.database", database,
		)
		require.NoError(t, err, out)
	}

	out, err := execute(t, "history", "--history.database.database", database)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3, out)

	// older runs shared the report name of the newest one
	_, err = os.Stat(filepath.Join(dir, config.DefaultReportName))
	assert.NoError(t, err)
}

func TestDevNode(t *testing.T) {
	t.Parallel()
	// Avoid port conflict
	_, err := execute(t, "devnode",
		"--devnode.port", "55082",
		"--devnode.metrics.enabled",
		"--devnode.metrics.port", "55083",
	)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
