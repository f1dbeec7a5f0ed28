package services

import (
	"context"
	"strings"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/notes"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type AddDataInput struct {
	Task        string
	SourceType  string
	Identifiers map[string]string
	// FileContent is an exported notes file. It wins over Texts when set.
	FileContent []byte
	Texts       []string
}

type AddDataService interface {
	AddData(ctx context.Context, in AddDataInput) (AddCollectionResult, error)
}

type addDataService struct {
	log       *logger.Logger
	catalog   *catalog.Catalog
	archiver  Archiver
	ingestion IngestionService
}

func NewAddDataService(log *logger.Logger, cat *catalog.Catalog, archiver Archiver, ingestion IngestionService) AddDataService {
	return &addDataService{
		log:       log.With("service", "AddDataService"),
		catalog:   cat,
		archiver:  archiver,
		ingestion: ingestion,
	}
}

func (s *addDataService) AddData(ctx context.Context, in AddDataInput) (AddCollectionResult, error) {
	const op = "add_data"
	if len(in.FileContent) == 0 && len(in.Texts) == 0 {
		return AddCollectionResult{}, domain.Errorf(domain.CodeValidation, op, "file and texts are both empty")
	}
	task := strings.ToLower(strings.TrimSpace(in.Task))
	sourceType := strings.ToLower(strings.TrimSpace(in.SourceType))
	allowed := s.catalog.SourcesForTask(task)
	if len(allowed) == 0 {
		return AddCollectionResult{}, domain.Errorf(domain.CodeValidation, op, "unsupported task %q", in.Task)
	}
	if !contains(allowed, sourceType) {
		return AddCollectionResult{}, domain.Errorf(domain.CodeValidation, op, "task %q does not accept source type %q", task, in.SourceType)
	}

	var texts []string
	var contents []string
	if len(in.FileContent) > 0 {
		parsed, err := notes.ParseKindleHTML(in.FileContent)
		if err != nil {
			return AddCollectionResult{}, domain.NewError(domain.CodeValidation, op, "notes file could not be parsed", err)
		}
		texts = parsed.Notes
		contents = URLs(s.archiver.Archive(ctx, []string{string(in.FileContent)}))
	} else {
		texts = cleanTexts(in.Texts)
	}
	if len(texts) == 0 {
		return AddCollectionResult{}, domain.Errorf(domain.CodeValidation, op, "no notes found")
	}

	res, err := s.ingestion.AddCollection(ctx, AddCollectionInput{
		SourceType:  sourceType,
		Identifiers: in.Identifiers,
		Texts:       texts,
		Contents:    contents,
	})
	if err != nil {
		return AddCollectionResult{}, err
	}
	s.log.Info("Data added", "task", task, "source_type", sourceType, "notes", len(texts))
	return res, nil
}

func cleanTexts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
