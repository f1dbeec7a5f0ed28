package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/data/repos/knowledge"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/observability"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// Transition computes the next schedule for a grade. *fsrs.Scheduler
// implements it.
type Transition interface {
	Next(cur domain.Schedule, g domain.Grade, now time.Time) (domain.Schedule, error)
}

type ReviewConfig struct {
	DefaultFetch int
	MaxFetch     int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Card struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type SubmitGradeInput struct {
	ThoughtID        int64
	Grade            domain.Grade
	ReviewDurationMs *int
}

type GradeResult struct {
	Message string       `json:"message"`
	NextDue *time.Time   `json:"nextDue"`
	State   domain.State `json:"state"`
}

type DiscardResult struct {
	Message          string `json:"message"`
	ID               int64  `json:"id"`
	AlreadyDiscarded bool   `json:"alreadyDiscarded"`
}

type ReviewService interface {
	NextCards(ctx context.Context, count int) ([]Card, error)
	SubmitGrade(ctx context.Context, in SubmitGradeInput) (GradeResult, error)
	Discard(ctx context.Context, thoughtID int64) (DiscardResult, error)
}

type reviewService struct {
	log        *logger.Logger
	cfg        ReviewConfig
	tx         aggregates.TxRunner
	thoughts   knowledge.ThoughtRepo
	reviewLogs knowledge.ReviewLogRepo
	transition Transition
}

func NewReviewService(
	log *logger.Logger,
	cfg ReviewConfig,
	tx aggregates.TxRunner,
	thoughts knowledge.ThoughtRepo,
	reviewLogs knowledge.ReviewLogRepo,
	transition Transition,
) ReviewService {
	if cfg.MaxFetch <= 0 {
		cfg.MaxFetch = 50
	}
	if cfg.DefaultFetch <= 0 {
		cfg.DefaultFetch = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &reviewService{
		log:        log.With("service", "ReviewService"),
		cfg:        cfg,
		tx:         tx,
		thoughts:   thoughts,
		reviewLogs: reviewLogs,
		transition: transition,
	}
}

// FetchCount applies the default and clamps to [1, max].
func FetchCount(requested, def, max int) int {
	n := requested
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (s *reviewService) NextCards(ctx context.Context, count int) ([]Card, error) {
	const op = "review.next_cards"
	n := FetchCount(count, s.cfg.DefaultFetch, s.cfg.MaxFetch)
	rows, err := s.thoughts.DueCards(dbctx.Context{Ctx: ctx}, s.cfg.Now().UTC(), n)
	if err != nil {
		s.log.For(ctx).Error("Due card query failed", "error", err)
		return nil, aggregates.MapError(op, err)
	}
	out := make([]Card, 0, len(rows))
	for _, r := range rows {
		out = append(out, Card{ID: r.ID, Text: r.Text})
	}
	return out, nil
}

func (s *reviewService) SubmitGrade(ctx context.Context, in SubmitGradeInput) (res GradeResult, err error) {
	const op = "review.submit_grade"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.Int64("thought.id", in.ThoughtID),
		attribute.Int("grade", int(in.Grade)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if !in.Grade.Valid() {
		return res, domain.Errorf(domain.CodePreconditionFailed, op, "rating must be between 1 and 4, got %d", in.Grade)
	}
	if in.ReviewDurationMs != nil && *in.ReviewDurationMs < 0 {
		return res, domain.Errorf(domain.CodeValidation, op, "review duration must not be negative")
	}

	now := s.cfg.Now().UTC()
	var after domain.Schedule
	err = s.tx.InTx(aggregates.WithOperation(ctx, op), func(dbc dbctx.Context) error {
		th, err := s.thoughts.GetForUpdate(dbc, in.ThoughtID)
		if err != nil {
			return aggregates.MapError(op, err)
		}
		if th == nil {
			return domain.Errorf(domain.CodeNotFound, op, "thought %d not found", in.ThoughtID)
		}
		if th.Discarded() {
			return domain.Errorf(domain.CodePreconditionFailed, op, "cannot review a discarded card")
		}
		before := th.Schedule()
		after, err = s.transition.Next(before, in.Grade, now)
		if err != nil {
			return domain.Wrap(domain.CodeValidation, op, err)
		}
		entry := domain.NewReviewLog(th.ID, now, in.Grade, before, after)
		entry.ReviewDurationMs = in.ReviewDurationMs
		if err := s.reviewLogs.Create(dbc, entry); err != nil {
			return aggregates.MapError(op, err)
		}
		if err := s.thoughts.UpdateSchedule(dbc, th.ID, after); err != nil {
			return aggregates.MapError(op, err)
		}
		return nil
	})
	if err != nil {
		if !domain.IsCode(err, domain.CodeNotFound) && !domain.IsCode(err, domain.CodePreconditionFailed) {
			s.log.For(ctx).Error("Submit grade failed", "thought_id", in.ThoughtID, "error", err)
		}
		return GradeResult{}, err
	}
	s.log.For(ctx).Info("Review recorded", "thought_id", in.ThoughtID, "grade", in.Grade.String(), "state", after.State.String())
	return GradeResult{Message: "Review updated", NextDue: after.Due, State: after.State}, nil
}

func (s *reviewService) Discard(ctx context.Context, thoughtID int64) (res DiscardResult, err error) {
	const op = "review.discard"
	ctx, span := observability.StartSpan(ctx, op, attribute.Int64("thought.id", thoughtID))
	defer func() { observability.EndSpan(span, err) }()

	now := s.cfg.Now().UTC()
	already := false
	err = s.tx.InTx(aggregates.WithOperation(ctx, op), func(dbc dbctx.Context) error {
		th, err := s.thoughts.GetForUpdate(dbc, thoughtID)
		if err != nil {
			return aggregates.MapError(op, err)
		}
		if th == nil {
			return domain.Errorf(domain.CodeNotFound, op, "thought %d not found", thoughtID)
		}
		if th.Discarded() {
			already = true
			return nil
		}
		changed, err := s.thoughts.MarkDiscarded(dbc, th.ID)
		if err != nil {
			return aggregates.MapError(op, err)
		}
		if !changed {
			already = true
			return nil
		}
		cur := th.Schedule()
		entry := domain.NewReviewLog(th.ID, now, domain.GradeDiscard, cur, cur)
		entry.Discard = true
		if err := s.reviewLogs.Create(dbc, entry); err != nil {
			return aggregates.MapError(op, err)
		}
		return nil
	})
	if err != nil {
		return DiscardResult{}, err
	}
	if already {
		return DiscardResult{Message: "Card already discarded", ID: thoughtID, AlreadyDiscarded: true}, nil
	}
	s.log.Info("Card discarded", "thought_id", thoughtID)
	return DiscardResult{Message: "Card discarded", ID: thoughtID}, nil
}
