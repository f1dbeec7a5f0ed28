package knowledge

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type SourceRepo interface {
	GetByNaturalKey(dbc dbctx.Context, sourceType, identifier string) (*domain.Source, error)
	GetByID(dbc dbctx.Context, id int64) (*domain.Source, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*domain.Source, error)
	// InsertIfAbsent inserts row unless its natural key exists. It returns
	// the stored row and whether this call created it.
	InsertIfAbsent(dbc dbctx.Context, row *domain.Source) (*domain.Source, bool, error)
	AppendContents(dbc dbctx.Context, id int64, urls []string) error
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{db: db, log: baseLog.With("repo", "SourceRepo")}
}

func (r *sourceRepo) GetByNaturalKey(dbc dbctx.Context, sourceType, identifier string) (*domain.Source, error) {
	if sourceType == "" || identifier == "" {
		return nil, nil
	}
	var rows []*domain.Source
	if err := dbc.DB(r.db).
		Where("type = ? AND identifier = ?", sourceType, identifier).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *sourceRepo) GetByID(dbc dbctx.Context, id int64) (*domain.Source, error) {
	if id <= 0 {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []int64{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *sourceRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*domain.Source, error) {
	var out []*domain.Source
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) InsertIfAbsent(dbc dbctx.Context, row *domain.Source) (*domain.Source, bool, error) {
	if row == nil {
		return nil, false, nil
	}
	if len(row.Properties) == 0 {
		row.Properties = datatypes.JSON([]byte("{}"))
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "identifier"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 && row.ID > 0 {
		return row, true, nil
	}
	// A concurrent request won the insert; read its row.
	existing, err := r.GetByNaturalKey(dbc, row.Type, row.Identifier)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	r.log.Debug("Source insert lost race", "type", row.Type, "source_id", existing.ID)
	return existing, false, nil
}

func (r *sourceRepo) AppendContents(dbc dbctx.Context, id int64, urls []string) error {
	if id <= 0 || len(urls) == 0 {
		return nil
	}
	row, err := r.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if row == nil {
		return gorm.ErrRecordNotFound
	}
	props := map[string]interface{}{}
	var typed domain.SourceProperties
	if len(row.Properties) > 0 {
		if err := json.Unmarshal(row.Properties, &props); err != nil {
			return err
		}
		if err := json.Unmarshal(row.Properties, &typed); err != nil {
			return err
		}
		if props == nil {
			props = map[string]interface{}{}
		}
	}
	seen := make(map[string]bool, len(typed.Contents))
	for _, u := range typed.Contents {
		seen[u] = true
	}
	merged := typed.Contents
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		merged = append(merged, u)
	}
	if len(merged) == len(typed.Contents) {
		return nil
	}
	props["contents"] = merged
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	return dbc.DB(r.db).
		Model(&domain.Source{}).
		Where("id = ?", id).
		Update("properties", datatypes.JSON(raw)).Error
}
