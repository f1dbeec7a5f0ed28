package fsrs

import (
	"testing"
	"time"

	"github.com/yungbote/conscious-backend/internal/domain"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNextFromNew(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		grade     domain.Grade
		wantState domain.State
	}{
		{domain.GradeAgain, domain.StateLearning},
		{domain.GradeHard, domain.StateLearning},
		{domain.GradeGood, domain.StateLearning},
		{domain.GradeEasy, domain.StateReview},
	}
	for _, tc := range cases {
		t.Run(tc.grade.String(), func(t *testing.T) {
			got, err := s.Next(domain.Schedule{State: domain.StateNew}, tc.grade, now)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if got.State != tc.wantState {
				t.Fatalf("state=%v want %v", got.State, tc.wantState)
			}
			if got.Due == nil || !got.Due.After(now) {
				t.Fatalf("due=%v not after %v", got.Due, now)
			}
			if tc.wantState == domain.StateLearning {
				if got.Step == nil || *got.Step != 0 {
					t.Fatalf("step=%v want 0", got.Step)
				}
				if got.Due.Sub(now) >= 24*time.Hour {
					t.Fatalf("learning wait=%v", got.Due.Sub(now))
				}
			} else {
				if got.Step != nil {
					t.Fatalf("review step=%v want nil", *got.Step)
				}
				if got.Due.Sub(now) < 24*time.Hour {
					t.Fatalf("review wait=%v", got.Due.Sub(now))
				}
			}
			if got.Stability == nil || *got.Stability <= 0 {
				t.Fatalf("stability=%v", got.Stability)
			}
			if got.Difficulty == nil || *got.Difficulty < 1 || *got.Difficulty > 10 {
				t.Fatalf("difficulty=%v outside [1,10]", got.Difficulty)
			}
			if got.LastReview == nil || !got.LastReview.Equal(now) {
				t.Fatalf("last review=%v", got.LastReview)
			}
		})
	}
}

func TestNextDoesNotMutateInput(t *testing.T) {
	s := newTestScheduler(t)
	stab, diff, step := 3.0, 5.0, 1
	last := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	due := last.Add(10 * time.Minute)
	cur := domain.Schedule{State: domain.StateLearning, Stability: &stab, Difficulty: &diff, Step: &step, Due: &due, LastReview: &last}

	if _, err := s.Next(cur, domain.GradeGood, last.Add(time.Hour)); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if stab != 3.0 || diff != 5.0 || step != 1 || !due.Equal(last.Add(10*time.Minute)) {
		t.Fatalf("input mutated: stab=%v diff=%v step=%v due=%v", stab, diff, step, due)
	}
}

func TestReviewLapseEntersRelearning(t *testing.T) {
	s := newTestScheduler(t)
	stab, diff := 10.0, 5.0
	last := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	due := last.Add(10 * 24 * time.Hour)
	now := due
	cur := domain.Schedule{State: domain.StateReview, Stability: &stab, Difficulty: &diff, Due: &due, LastReview: &last}

	got, err := s.Next(cur, domain.GradeAgain, now)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.State != domain.StateRelearning || got.Step == nil || *got.Step != 0 {
		t.Fatalf("state=%v step=%v", got.State, got.Step)
	}
	if *got.Stability >= stab {
		t.Fatalf("lapse should reduce stability: %v", *got.Stability)
	}

	good, err := s.Next(cur, domain.GradeGood, now)
	if err != nil {
		t.Fatalf("Next(good): %v", err)
	}
	if good.State != domain.StateReview || good.Step != nil {
		t.Fatalf("good review state=%v step=%v", good.State, good.Step)
	}
	if *good.Stability <= stab {
		t.Fatalf("recall should grow stability: %v", *good.Stability)
	}
}

func TestStepCountsRepeatedShortTermReviews(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := s.Next(domain.Schedule{State: domain.StateNew}, domain.GradeAgain, now)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	second, err := s.Next(first, domain.GradeAgain, *first.Due)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.State != domain.StateLearning || second.Step == nil || *second.Step != 1 {
		t.Fatalf("state=%v step=%v want Learning step 1", second.State, second.Step)
	}
}

func TestNextRejectsInvalidInput(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Now()
	for _, g := range []domain.Grade{0, 5, -1} {
		if _, err := s.Next(domain.Schedule{}, g, now); err == nil {
			t.Fatalf("grade %d: expected error", g)
		}
	}
	if _, err := s.Next(domain.Schedule{State: 9}, domain.GradeGood, now); err == nil {
		t.Fatalf("expected invalid state error")
	}
}

func TestIntervalRespectsMaximum(t *testing.T) {
	s, err := New(Config{MaxIntervalDays: 30})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stab, diff := 500.0, 2.0
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := last.Add(400 * 24 * time.Hour)
	got, err := s.Next(domain.Schedule{State: domain.StateReview, Stability: &stab, Difficulty: &diff, Due: &due, LastReview: &last}, domain.GradeEasy, due)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if wait := got.Due.Sub(due); wait <= 0 || wait > 30*24*time.Hour {
		t.Fatalf("wait=%v want within 30d", wait)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cases := map[string]Config{
		"weights":   {Weights: []float64{0.4, 1.2, 3.1}},
		"retention": {DesiredRetention: 1.5},
		"max days":  {MaxIntervalDays: -1},
	}
	for name, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
