package knowledge

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type ThoughtRepo interface {
	Create(dbc dbctx.Context, row *domain.Thought) error
	GetByID(dbc dbctx.Context, id int64) (*domain.Thought, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*domain.Thought, error)
	// GetForUpdate reads the row with a row lock on postgres.
	GetForUpdate(dbc dbctx.Context, id int64) (*domain.Thought, error)

	// ListEmbeddings pages through thoughts by id for exact in-process scans.
	ListEmbeddings(dbc dbctx.Context, afterID int64, limit int) ([]*domain.Thought, error)
	// Nearest returns up to limit rows by ascending cosine distance to vec.
	Nearest(dbc dbctx.Context, vec pgvector.Vector, limit int) ([]domain.Neighbor, error)

	// DueCards selects reviewable thoughts: not discarded, due now or never
	// reviewed. Scheduled rows come first by due, then new rows by id.
	DueCards(dbc dbctx.Context, now time.Time, limit int) ([]*domain.Thought, error)

	UpdateSchedule(dbc dbctx.Context, id int64, s domain.Schedule) error
	// MarkDiscarded reports false when the thought was already discarded.
	MarkDiscarded(dbc dbctx.Context, id int64) (bool, error)
}

type thoughtRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThoughtRepo(db *gorm.DB, baseLog *logger.Logger) ThoughtRepo {
	return &thoughtRepo{db: db, log: baseLog.With("repo", "ThoughtRepo")}
}

func (r *thoughtRepo) Create(dbc dbctx.Context, row *domain.Thought) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *thoughtRepo) GetByID(dbc dbctx.Context, id int64) (*domain.Thought, error) {
	if id <= 0 {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []int64{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *thoughtRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*domain.Thought, error) {
	var out []*domain.Thought
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *thoughtRepo) GetForUpdate(dbc dbctx.Context, id int64) (*domain.Thought, error) {
	if id <= 0 {
		return nil, nil
	}
	q := dbc.DB(r.db).Where("id = ?", id).Limit(1)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []*domain.Thought
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *thoughtRepo) ListEmbeddings(dbc dbctx.Context, afterID int64, limit int) ([]*domain.Thought, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []*domain.Thought
	if err := dbc.DB(r.db).
		Select("id", "text", "embedding").
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Nearest orders by distance alone so the HNSW cosine index can serve it;
// callers break ties by id.
func (r *thoughtRepo) Nearest(dbc dbctx.Context, vec pgvector.Vector, limit int) ([]domain.Neighbor, error) {
	if limit <= 0 {
		limit = 1
	}
	var out []domain.Neighbor
	err := dbc.DB(r.db).
		Raw(`SELECT id, text, embedding <=> ? AS distance
			FROM thought
			ORDER BY embedding <=> ?
			LIMIT ?`, vec, vec, limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *thoughtRepo) DueCards(dbc dbctx.Context, now time.Time, limit int) ([]*domain.Thought, error) {
	var out []*domain.Thought
	if limit <= 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("(srs_discard IS NULL OR srs_discard = ?)", false).
		Where("(srs_due IS NULL OR srs_due <= ?)", now.UTC()).
		Order("CASE WHEN srs_due IS NULL THEN 1 ELSE 0 END ASC").
		Order("srs_due ASC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *thoughtRepo) UpdateSchedule(dbc dbctx.Context, id int64, s domain.Schedule) error {
	if id <= 0 {
		return gorm.ErrRecordNotFound
	}
	res := dbc.DB(r.db).
		Model(&domain.Thought{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"srs_due":         s.Due,
			"srs_stability":   s.Stability,
			"srs_difficulty":  s.Difficulty,
			"srs_state":       s.State,
			"srs_step":        s.Step,
			"srs_last_review": s.LastReview,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *thoughtRepo) MarkDiscarded(dbc dbctx.Context, id int64) (bool, error) {
	res := dbc.DB(r.db).
		Model(&domain.Thought{}).
		Where("id = ? AND (srs_discard IS NULL OR srs_discard = ?)", id, false).
		Update("srs_discard", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
