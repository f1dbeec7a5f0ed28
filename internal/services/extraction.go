package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/observability"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// Completer is the completion service that splits text into thoughts.
type Completer interface {
	ExtractThoughts(ctx context.Context, text string) ([]string, error)
}

type ExtractInput struct {
	Text        string
	SourceType  string
	Identifiers map[string]string
}

type ExtractionService interface {
	// Extract derives thoughts from text, archives the raw text and stores
	// the thoughts under the source. It returns the extracted strings.
	Extract(ctx context.Context, in ExtractInput) ([]string, error)
}

type extractionService struct {
	log       *logger.Logger
	catalog   *catalog.Catalog
	completer Completer
	archiver  Archiver
	ingestion IngestionService
}

func NewExtractionService(
	log *logger.Logger,
	cat *catalog.Catalog,
	completer Completer,
	archiver Archiver,
	ingestion IngestionService,
) ExtractionService {
	return &extractionService{
		log:       log.With("service", "ExtractionService"),
		catalog:   cat,
		completer: completer,
		archiver:  archiver,
		ingestion: ingestion,
	}
}

func (s *extractionService) Extract(ctx context.Context, in ExtractInput) (thoughts []string, err error) {
	const op = "extraction.extract"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("source.type", in.SourceType))
	defer func() { observability.EndSpan(span, err) }()

	text := strings.TrimSpace(DecodeUnicodeEscapes(in.Text))
	var violations []string
	if text == "" {
		violations = append(violations, "text: input text cannot be empty after decoding and trimming")
	}
	if strings.TrimSpace(in.SourceType) == "" {
		violations = append(violations, "type: type cannot be empty")
	}
	if len(in.Identifiers) == 0 {
		violations = append(violations, "identifiers: identifiers map cannot be empty")
	}
	if len(violations) > 0 {
		return nil, domain.Errorf(domain.CodeValidation, op, "%s", strings.Join(violations, "; "))
	}
	if _, err := s.catalog.Resolve(in.SourceType, in.Identifiers); err != nil {
		return nil, err
	}

	thoughts, err = s.completer.ExtractThoughts(ctx, text)
	if err != nil {
		s.log.For(ctx).Error("Thought extraction failed", "error", err)
		return nil, domain.Wrap(domain.CodeUpstream, op, err)
	}
	contents := URLs(s.archiver.Archive(ctx, []string{text}))

	if _, err := s.ingestion.AddCollection(ctx, AddCollectionInput{
		SourceType:  in.SourceType,
		Identifiers: in.Identifiers,
		Texts:       thoughts,
		Contents:    contents,
	}); err != nil {
		return nil, err
	}
	s.log.Info("Thoughts extracted", "source_type", in.SourceType, "thoughts", len(thoughts), "archived", len(contents) > 0)
	return thoughts, nil
}
