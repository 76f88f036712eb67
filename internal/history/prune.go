package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/USA-RedDragon/germ-rpctest/internal/db/models"
	"github.com/USA-RedDragon/germ-rpctest/internal/storage"
	"gorm.io/gorm"
)

// Prune deletes every run but the newest keep, together with their stored
// reports when store is set. It returns the number of deleted runs.
func Prune(ctx context.Context, db *gorm.DB, store storage.Manager, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	db = db.WithContext(ctx)

	count, err := models.CountRuns(db)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	if count <= keep {
		return 0, nil
	}
	runs, err := models.ListRuns(db, count)
	if err != nil {
		return 0, fmt.Errorf("failed to list runs: %w", err)
	}

	// reports may be overwritten by later runs under the same name
	kept := make(map[string]bool, keep)
	for _, run := range runs[:keep] {
		if run.Report.Valid() {
			kept[run.Report.StringValue()] = true
		}
	}

	deleted := 0
	for _, run := range runs[keep:] {
		if err := models.DeleteRun(db, run.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete run %s: %w", run.ID, err)
		}
		deleted++

		if store == nil || !run.Report.Valid() || kept[run.Report.StringValue()] {
			continue
		}
		err := store.Remove(run.Report.StringValue())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to remove report", "run", run.ID, "report", run.Report.StringValue(), "error", err.Error())
		}
	}
	slog.Info("Pruned run history", "deleted", deleted, "kept", keep)
	return deleted, nil
}
