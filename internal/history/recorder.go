package history

import (
	"context"
	"fmt"
	"slices"

	"github.com/USA-RedDragon/germ-rpctest/internal/db/models"
	"github.com/USA-RedDragon/germ-rpctest/internal/suite"
	"github.com/google/uuid"
	"github.com/mattn/go-nulltype"
	"gorm.io/gorm"
)

// Recorder stores every run and its case results in the database.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) RunStarted(ctx context.Context, info suite.RunInfo) error {
	run := models.Run{
		ID:        info.ID,
		NodeURL:   info.NodeURL,
		Version:   info.Version,
		StartedAt: info.StartedAt,
		Cases:     len(info.Cases),
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (r *Recorder) CaseFinished(ctx context.Context, info suite.RunInfo, result suite.Result) error {
	record := models.CaseResult{
		RunID:    info.ID,
		Position: slices.Index(info.Cases, result.Name),
		Name:     result.Name,
		Status:   string(result.Status),
		Message:  result.Message,
		Duration: result.Duration,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record case %s: %w", result.Name, err)
	}
	return nil
}

func (r *Recorder) RunFinished(ctx context.Context, info suite.RunInfo, summary suite.Summary) error {
	finished := info.StartedAt.Add(summary.Duration)
	err := r.db.WithContext(ctx).Model(&models.Run{ID: info.ID}).Updates(map[string]any{
		"finished_at": finished,
		"cancelled":   summary.Cancelled,
		"passed":      summary.Passed,
		"failures":    summary.Failures,
		"errors":      summary.Errors,
		"skipped":     summary.Skipped,
		"duration":    summary.Duration,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// AttachReport records where the report of run id was stored.
func (r *Recorder) AttachReport(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Model(&models.Run{ID: id}).Update("report", nulltype.NullStringOf(name)).Error
}
