package domain

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Thought is an atomic extracted idea plus its review schedule.
// The srs_* columns are only written by the review scheduler.
type Thought struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Text      string          `gorm:"column:text;type:text;not null" json:"text"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector;not null" json:"-"`
	CreatedAt time.Time       `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`

	SrsDue        *time.Time `gorm:"column:srs_due;index" json:"srs_due,omitempty"`
	SrsStability  *float64   `gorm:"column:srs_stability" json:"srs_stability,omitempty"`
	SrsDifficulty *float64   `gorm:"column:srs_difficulty" json:"srs_difficulty,omitempty"`
	SrsState      State      `gorm:"column:srs_state;type:smallint;not null;default:0" json:"srs_state"`
	SrsStep       *int       `gorm:"column:srs_step" json:"srs_step,omitempty"`
	SrsLastReview *time.Time `gorm:"column:srs_last_review" json:"srs_last_review,omitempty"`
	SrsDiscard    *bool      `gorm:"column:srs_discard" json:"srs_discard,omitempty"`
}

func (Thought) TableName() string { return "thought" }

// Discarded treats a null flag as false.
func (t *Thought) Discarded() bool {
	return t != nil && t.SrsDiscard != nil && *t.SrsDiscard
}

// Schedule is a snapshot of the mutable review fields.
type Schedule struct {
	Due        *time.Time
	Stability  *float64
	Difficulty *float64
	State      State
	Step       *int
	LastReview *time.Time
}

func (t *Thought) Schedule() Schedule {
	return Schedule{
		Due:        t.SrsDue,
		Stability:  t.SrsStability,
		Difficulty: t.SrsDifficulty,
		State:      t.SrsState,
		Step:       t.SrsStep,
		LastReview: t.SrsLastReview,
	}
}

func (t *Thought) ApplySchedule(s Schedule) {
	t.SrsDue = s.Due
	t.SrsStability = s.Stability
	t.SrsDifficulty = s.Difficulty
	t.SrsState = s.State
	t.SrsStep = s.Step
	t.SrsLastReview = s.LastReview
}

// Neighbor is one similarity hit, distance being cosine distance in [0, 2].
type Neighbor struct {
	ID       int64   `json:"id"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}
