package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseResult struct {
	ID       uint          `json:"-" gorm:"primaryKey"`
	RunID    uuid.UUID     `json:"-" gorm:"type:varchar(36);index"`
	Position int           `json:"position"`
	Name     string        `json:"name" gorm:"index"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty" gorm:"type:text"`
	Duration time.Duration `json:"duration"`

	CreatedAt time.Time `json:"-"`
}

func (c CaseResult) TableName() string {
	return "case_results"
}

// ListCaseResultsByName returns the latest results of one case across runs.
func ListCaseResultsByName(db *gorm.DB, name string, limit int) ([]CaseResult, error) {
	var results []CaseResult
	err := db.Where("name = ?", name).Order("id desc").Limit(limit).Find(&results).Error
	return results, err
}
