package knowledge

import (
	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// ReviewLogRepo is append-only: rows are never updated or deleted.
type ReviewLogRepo interface {
	Create(dbc dbctx.Context, row *domain.ReviewLog) error
	CountByThought(dbc dbctx.Context, thoughtID int64) (int64, error)
	ListByThought(dbc dbctx.Context, thoughtID int64) ([]*domain.ReviewLog, error)
}

type reviewLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewLogRepo(db *gorm.DB, baseLog *logger.Logger) ReviewLogRepo {
	return &reviewLogRepo{db: db, log: baseLog.With("repo", "ReviewLogRepo")}
}

func (r *reviewLogRepo) Create(dbc dbctx.Context, row *domain.ReviewLog) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *reviewLogRepo) CountByThought(dbc dbctx.Context, thoughtID int64) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&domain.ReviewLog{}).Where("thought_id = ?", thoughtID).Count(&n).Error
	return n, err
}

func (r *reviewLogRepo) ListByThought(dbc dbctx.Context, thoughtID int64) ([]*domain.ReviewLog, error) {
	var out []*domain.ReviewLog
	if err := dbc.DB(r.db).
		Where("thought_id = ?", thoughtID).
		Order("time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
