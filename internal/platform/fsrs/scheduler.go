package fsrs

import (
	"fmt"
	"math"
	"sync"
	"time"

	gofsrs "github.com/open-spaced-repetition/go-fsrs/v3"

	"github.com/yungbote/conscious-backend/internal/domain"
)

type Config struct {
	// Weights overrides the library defaults; it must hold exactly
	// len(gofsrs.Weights{}) values when set.
	Weights          []float64
	DesiredRetention float64 // zero value selects 0.9
	MaxIntervalDays  int     // zero value selects 36500
	EnableFuzz       bool
}

// Scheduler maps thought schedules onto go-fsrs cards. It is safe for
// concurrent use.
type Scheduler struct {
	mu sync.Mutex
	f  *gofsrs.FSRS
}

func New(cfg Config) (*Scheduler, error) {
	p := gofsrs.DefaultParam()
	if len(cfg.Weights) > 0 {
		var w gofsrs.Weights
		if len(cfg.Weights) != len(w) {
			return nil, fmt.Errorf("fsrs: %d weights, want %d", len(cfg.Weights), len(w))
		}
		for i, v := range cfg.Weights {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("fsrs: weight %d is not finite", i)
			}
			w[i] = v
		}
		p.W = w
	}
	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = 0.9
	}
	if retention <= 0 || retention >= 1 {
		return nil, fmt.Errorf("fsrs: desired retention %v outside (0, 1)", retention)
	}
	maxDays := cfg.MaxIntervalDays
	if maxDays == 0 {
		maxDays = 36500
	}
	if maxDays < 1 {
		return nil, fmt.Errorf("fsrs: max interval %d must be positive", maxDays)
	}
	p.RequestRetention = retention
	p.MaximumInterval = float64(maxDays)
	p.EnableFuzz = cfg.EnableFuzz
	p.EnableShortTerm = true
	return &Scheduler{f: gofsrs.NewFSRS(p)}, nil
}

// Next returns the schedule after grading cur with g at now. cur is not mutated.
func (s *Scheduler) Next(cur domain.Schedule, g domain.Grade, now time.Time) (domain.Schedule, error) {
	if !g.Valid() {
		return domain.Schedule{}, fmt.Errorf("fsrs: grade %d outside [1, 4]", int(g))
	}
	if !cur.State.Valid() {
		return domain.Schedule{}, fmt.Errorf("fsrs: invalid state %d", int16(cur.State))
	}
	now = now.UTC()

	s.mu.Lock()
	info := s.f.Next(toCard(cur, now), now, gofsrs.Rating(g))
	s.mu.Unlock()

	return fromCard(cur, info.Card, now), nil
}

func toCard(cur domain.Schedule, now time.Time) gofsrs.Card {
	c := gofsrs.NewCard()
	c.Due = now
	c.State = gofsrs.State(cur.State)
	if cur.State == domain.StateNew {
		return c
	}
	if cur.Stability != nil {
		c.Stability = *cur.Stability
	}
	if cur.Difficulty != nil {
		c.Difficulty = *cur.Difficulty
	}
	if cur.Due != nil {
		c.Due = cur.Due.UTC()
	}
	if cur.LastReview != nil {
		c.LastReview = cur.LastReview.UTC()
		if d := c.Due.Sub(c.LastReview); d > 0 {
			c.ScheduledDays = uint64(d.Hours() / 24)
		}
		if e := now.Sub(c.LastReview); e > 0 {
			c.ElapsedDays = uint64(e.Hours() / 24)
		}
	}
	return c
}

// fromCard keeps Step as the count of consecutive short-term reviews in
// Learning or Relearning; it is nil in Review.
func fromCard(cur domain.Schedule, c gofsrs.Card, now time.Time) domain.Schedule {
	due := c.Due.UTC()
	stab, diff := c.Stability, c.Difficulty
	reviewed := now
	next := domain.Schedule{
		Due:        &due,
		Stability:  &stab,
		Difficulty: &diff,
		State:      domain.State(c.State),
		LastReview: &reviewed,
	}
	switch next.State {
	case domain.StateLearning, domain.StateRelearning:
		step := 0
		if cur.State == next.State && cur.Step != nil {
			step = *cur.Step + 1
		}
		next.Step = &step
	}
	return next
}
