package domain

import "time"

// ReviewLog is an append-only record of one grading or discard event.
type ReviewLog struct {
	Time      time.Time `gorm:"column:time;primaryKey;autoIncrement:false" json:"time"`
	ThoughtID int64     `gorm:"column:thought_id;primaryKey;autoIncrement:false;index" json:"thought_id"`
	Grade     Grade     `gorm:"column:grade;not null" json:"grade"`

	StabilityBefore  *float64   `gorm:"column:stability_before" json:"stability_before,omitempty"`
	StabilityAfter   *float64   `gorm:"column:stability_after" json:"stability_after,omitempty"`
	DifficultyBefore *float64   `gorm:"column:difficulty_before" json:"difficulty_before,omitempty"`
	DifficultyAfter  *float64   `gorm:"column:difficulty_after" json:"difficulty_after,omitempty"`
	StateBefore      State      `gorm:"column:state_before;type:smallint;not null;default:0" json:"state_before"`
	StateAfter       State      `gorm:"column:state_after;type:smallint;not null;default:0" json:"state_after"`
	StepBefore       *int       `gorm:"column:step_before" json:"step_before,omitempty"`
	StepAfter        *int       `gorm:"column:step_after" json:"step_after,omitempty"`
	DueBefore        *time.Time `gorm:"column:due_before" json:"due_before,omitempty"`
	DueAfter         *time.Time `gorm:"column:due_after" json:"due_after,omitempty"`
	LastReview       *time.Time `gorm:"column:last_review" json:"last_review,omitempty"`
	ReviewDurationMs *int       `gorm:"column:review_duration" json:"review_duration,omitempty"`
	Discard          bool       `gorm:"column:discard;not null;default:false" json:"discard"`
}

func (ReviewLog) TableName() string { return "review_log" }

// NewReviewLog snapshots before/after schedules for one event.
func NewReviewLog(thoughtID int64, at time.Time, grade Grade, before, after Schedule) *ReviewLog {
	return &ReviewLog{
		Time:             at,
		ThoughtID:        thoughtID,
		Grade:            grade,
		StabilityBefore:  before.Stability,
		StabilityAfter:   after.Stability,
		DifficultyBefore: before.Difficulty,
		DifficultyAfter:  after.Difficulty,
		StateBefore:      before.State,
		StateAfter:       after.State,
		StepBefore:       before.Step,
		StepAfter:        after.Step,
		DueBefore:        before.Due,
		DueAfter:         after.Due,
		LastReview:       before.LastReview,
	}
}
