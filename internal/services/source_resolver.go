package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/data/graph"
	"github.com/yungbote/conscious-backend/internal/data/repos/knowledge"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// SourceGUID is the deterministic external id of a source.
func SourceGUID(sourceType, identifier string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(sourceType+":"+identifier))
}

type SourceResolver interface {
	// ResolveOrCreate returns the source for the identity, creating the row
	// and its graph vertex on first sight. contents are archived URLs merged
	// into the source properties. Must run inside a transaction.
	ResolveOrCreate(dbc dbctx.Context, identity catalog.Identity, contents []string) (*domain.Source, error)
}

type sourceResolver struct {
	log     *logger.Logger
	sources knowledge.SourceRepo
	graph   graph.Mutator
}

func NewSourceResolver(log *logger.Logger, sources knowledge.SourceRepo, mutator graph.Mutator) SourceResolver {
	return &sourceResolver{
		log:     log.With("service", "SourceResolver"),
		sources: sources,
		graph:   mutator,
	}
}

func (r *sourceResolver) ResolveOrCreate(dbc dbctx.Context, identity catalog.Identity, contents []string) (*domain.Source, error) {
	const op = "source.resolve_or_create"
	if identity.Type == "" || identity.Canonical == "" {
		return nil, domain.Errorf(domain.CodeInvalidIdentity, op, "source identity is empty")
	}

	existing, err := r.sources.GetByNaturalKey(dbc, identity.Type, identity.Canonical)
	if err != nil {
		r.log.For(dbc.Ctx).Error("Source lookup failed", "type", identity.Type, "error", err)
		return nil, aggregates.MapError(op, err)
	}
	if existing != nil {
		if err := r.sources.AppendContents(dbc, existing.ID, contents); err != nil {
			return nil, aggregates.MapError(op, err)
		}
		return existing, nil
	}

	props, err := json.Marshal(domain.SourceProperties{Contents: nonEmpty(contents)})
	if err != nil {
		return nil, domain.Wrap(domain.CodeValidation, op, err)
	}
	row := &domain.Source{
		Type:       identity.Type,
		Identifier: identity.Canonical,
		GUID:       SourceGUID(identity.Type, identity.Canonical),
		Properties: datatypes.JSON(props),
	}
	stored, created, err := r.sources.InsertIfAbsent(dbc, row)
	if err != nil {
		r.log.For(dbc.Ctx).Error("Source insert failed", "type", identity.Type, "error", err)
		return nil, aggregates.MapError(op, err)
	}
	if !created {
		if err := r.sources.AppendContents(dbc, stored.ID, contents); err != nil {
			return nil, aggregates.MapError(op, err)
		}
		return stored, nil
	}
	if err := r.graph.CreateSourceVertex(dbc, stored); err != nil {
		r.log.For(dbc.Ctx).Error("Source vertex create failed", "source_id", stored.ID, "error", err)
		return nil, domain.Wrap(domain.CodeStorage, op, err)
	}
	r.log.For(dbc.Ctx).Info("Source created", "source_id", stored.ID, "type", stored.Type, "guid", stored.GUID.String())
	return stored, nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
