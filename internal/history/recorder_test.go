package history_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/db"
	"github.com/USA-RedDragon/germ-rpctest/internal/db/models"
	"github.com/USA-RedDragon/germ-rpctest/internal/history"
	"github.com/USA-RedDragon/germ-rpctest/internal/storage"
	"github.com/USA-RedDragon/germ-rpctest/internal/suite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func makeDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{History: config.History{Database: config.Database{
		Driver:   config.DatabaseDriverSQLite,
		Database: filepath.Join(t.TempDir(), "history.db"),
	}}}
	database, err := db.MakeDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := database.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

func record(t *testing.T, recorder *history.Recorder, started time.Time, results ...suite.Result) suite.RunInfo {
	t.Helper()
	ctx := context.Background()
	info := suite.RunInfo{
		ID:        uuid.New(),
		NodeURL:   "http://localhost:55000",
		Version:   "testing",
		StartedAt: started,
	}
	summary := suite.Summary{ID: info.ID, Duration: 2 * time.Second}
	for _, r := range results {
		info.Cases = append(info.Cases, r.Name)
	}
	require.NoError(t, recorder.RunStarted(ctx, info))
	for _, r := range results {
		summary.Run++
		switch r.Status {
		case suite.StatusPass:
			summary.Passed++
		case suite.StatusFail:
			summary.Failures++
		case suite.StatusError:
			summary.Errors++
		case suite.StatusSkip:
			summary.Skipped++
		}
		require.NoError(t, recorder.CaseFinished(ctx, info, r))
	}
	require.NoError(t, recorder.RunFinished(ctx, info, summary))
	return info
}

func TestRecordRun(t *testing.T) {
	t.Parallel()
	database := makeDB(t)
	recorder := history.NewRecorder(database)

	started := time.Now().Add(-time.Minute).UTC()
	info := record(t, recorder, started,
		suite.Result{Name: "block_count", Status: suite.StatusPass, Duration: time.Millisecond},
		suite.Result{Name: "send_receive", Status: suite.StatusFail, Message: "received 0, sent 1"},
	)
	require.NoError(t, recorder.AttachReport(context.Background(), info.ID, "rpc_test.txt"))

	run, err := models.FindRunByID(database, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:55000", run.NodeURL)
	assert.Equal(t, 2, run.Cases)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failures)
	assert.Equal(t, 2*time.Second, run.Duration)
	require.NotNil(t, run.FinishedAt)
	assert.False(t, run.OK())
	assert.Equal(t, "rpc_test.txt", run.Report.StringValue())

	require.Len(t, run.Results, 2)
	assert.Equal(t, "block_count", run.Results[0].Name)
	assert.Equal(t, 0, run.Results[0].Position)
	assert.Equal(t, "send_receive", run.Results[1].Name)
	assert.Equal(t, "FAIL", run.Results[1].Status)
	assert.Equal(t, "received 0, sent 1", run.Results[1].Message)

	results, err := models.ListCaseResultsByName(database, "send_receive", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestListRuns(t *testing.T) {
	t.Parallel()
	database := makeDB(t)
	recorder := history.NewRecorder(database)

	base := time.Now().Add(-time.Hour).UTC()
	first := record(t, recorder, base, suite.Result{Name: "block_count", Status: suite.StatusPass})
	second := record(t, recorder, base.Add(time.Minute), suite.Result{Name: "block_count", Status: suite.StatusPass})
	third := record(t, recorder, base.Add(2*time.Minute), suite.Result{Name: "block_count", Status: suite.StatusError})

	runs, err := models.ListRuns(database, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, third.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
	assert.False(t, runs[0].OK())
	assert.True(t, runs[1].OK())

	count, err := models.CountRuns(database)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, models.DeleteRun(database, first.ID))
	count, err = models.CountRuns(database)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	results, err := models.ListCaseResultsByName(database, "block_count", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCancelledRunIsRecorded(t *testing.T) {
	t.Parallel()
	database := makeDB(t)
	recorder := history.NewRecorder(database)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cases := []suite.Case{
		{Name: "block_count", Run: func(context.Context, *suite.T) error {
			cancel()
			return nil
		}},
		{Name: "send_receive", Run: func(context.Context, *suite.T) error {
			return nil
		}},
	}

	summary, err := suite.NewRunner(nil, suite.WithObservers(recorder)).Run(ctx, cases)
	require.NoError(t, err)
	require.True(t, summary.Cancelled)

	run, err := models.FindRunByID(database, summary.ID)
	require.NoError(t, err)
	require.NotNil(t, run.FinishedAt)
	assert.True(t, run.Cancelled)
	assert.False(t, run.OK())
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Skipped)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "PASS", run.Results[0].Status)
	assert.Equal(t, "SKIP", run.Results[1].Status)
	assert.Equal(t, "run cancelled", run.Results[1].Message)
}

func TestPrune(t *testing.T) {
	t.Parallel()
	database := makeDB(t)
	recorder := history.NewRecorder(database)

	dir := t.TempDir()
	store, err := storage.NewStorage(context.Background(), &config.Config{Report: config.Report{
		Driver:    config.ReportDriverFilesystem,
		Directory: dir,
	}})
	require.NoError(t, err)
	defer store.Close()

	base := time.Now().Add(-time.Hour).UTC()
	names := []string{"first.txt", "second.txt", "third.txt"}
	infos := make([]suite.RunInfo, 0, len(names))
	for i, name := range names {
		info := record(t, recorder, base.Add(time.Duration(i)*time.Minute), suite.Result{Name: "block_count", Status: suite.StatusPass})
		_, err := storage.WriteReport(store, name, []byte("OK\n"), false)
		require.NoError(t, err)
		require.NoError(t, recorder.AttachReport(context.Background(), info.ID, name))
		infos = append(infos, info)
	}
	// a report that is already gone is not an error
	require.NoError(t, os.Remove(filepath.Join(dir, "first.txt")))

	deleted, err := history.Prune(context.Background(), database, store, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	runs, err := models.ListRuns(database, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, infos[2].ID, runs[0].ID)

	_, err = os.Stat(filepath.Join(dir, "second.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(dir, "third.txt"))
	assert.NoError(t, err)

	results, err := models.ListCaseResultsByName(database, "block_count", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// nothing left to prune, and zero keeps everything
	deleted, err = history.Prune(context.Background(), database, store, 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	deleted, err = history.Prune(context.Background(), database, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
