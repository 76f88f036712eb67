package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-nulltype"
	"gorm.io/gorm"
)

// Run is one execution of the suite against a node.
type Run struct {
	ID         uuid.UUID           `json:"id" gorm:"type:varchar(36);primaryKey"`
	NodeURL    string              `json:"node_url"`
	Version    string              `json:"version"`
	StartedAt  time.Time           `json:"started_at" gorm:"index"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Cancelled  bool                `json:"cancelled"`
	Cases      int                 `json:"cases"`
	Passed     int                 `json:"passed"`
	Failures   int                 `json:"failures"`
	Errors     int                 `json:"errors"`
	Skipped    int                 `json:"skipped"`
	Duration   time.Duration       `json:"duration"`
	Report     nulltype.NullString `json:"report,omitempty" gorm:"type:varchar(255)"`
	Results    []CaseResult        `json:"results,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (r Run) TableName() string {
	return "runs"
}

// OK reports whether the run finished without failures or errors.
func (r Run) OK() bool {
	return r.FinishedAt != nil && !r.Cancelled && r.Failures == 0 && r.Errors == 0
}

func FindRunByID(db *gorm.DB, id uuid.UUID) (Run, error) {
	var run Run
	err := db.Preload("Results", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	}).First(&run, "id = ?", id).Error
	return run, err
}

// ListRuns returns the newest runs first.
func ListRuns(db *gorm.DB, limit int) ([]Run, error) {
	var runs []Run
	err := db.Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

func CountRuns(db *gorm.DB) (int, error) {
	var count int64
	err := db.Model(&Run{}).Count(&count).Error
	return int(count), err
}

func DeleteRun(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&CaseResult{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Run{ID: id}).Error
	})
}
