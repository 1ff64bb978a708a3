package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/glossa-cli/internal/schema"
)

// SchemaService resolves document conformance. The catalog is ordered
// strictest first; Resolve validates against each schema in turn and
// the first full pass is the document's effective conformance level.
// Compiled tables and validation reports are cached through injected
// caches, both keyed so that stale entries can never be served for a
// changed document or grammar revision.
type SchemaService struct {
	sources     []driven.SchemaSource
	constraints driven.ConstraintCache
	reports     driven.ReportCache
	validator   driving.Validator
	catalogIDs  []string
}

// NewSchemaService creates the schema resolution service. sources are
// consulted in order for grammar text; catalogIDs fixes the resolution
// order, strictest first.
func NewSchemaService(sources []driven.SchemaSource, constraints driven.ConstraintCache, reports driven.ReportCache, validator driving.Validator, catalogIDs []string) *SchemaService {
	return &SchemaService{
		sources:     sources,
		constraints: constraints,
		reports:     reports,
		validator:   validator,
		catalogIDs:  append([]string(nil), catalogIDs...),
	}
}

// Ensure SchemaService implements the driving port.
var _ driving.SchemaService = (*SchemaService)(nil)

// Catalog implements driving.SchemaService.
func (s *SchemaService) Catalog(ctx context.Context) ([]domain.SchemaRef, error) {
	known := map[string]domain.SchemaRef{}
	for _, src := range s.sources {
		refs, err := src.Refs(ctx)
		if err != nil {
			continue
		}
		for _, ref := range refs {
			if _, ok := known[ref.ID]; !ok {
				known[ref.ID] = ref
			}
		}
	}

	out := make([]domain.SchemaRef, 0, len(s.catalogIDs))
	for _, id := range s.catalogIDs {
		if ref, ok := known[id]; ok {
			out = append(out, ref)
			continue
		}
		out = append(out, domain.SchemaRef{ID: id, Name: id})
	}
	return out, nil
}

// Table implements driving.SchemaService.
func (s *SchemaService) Table(ctx context.Context, schemaID string) (domain.ConstraintTable, error) {
	if s.constraints != nil {
		if table, ok := s.constraints.Get(schemaID); ok {
			return table, nil
		}
	}

	grammar, err := s.fetch(ctx, schemaID)
	if err != nil {
		return domain.ConstraintTable{}, err
	}
	table, err := schema.Compile(schemaID, grammar)
	if err != nil {
		return domain.ConstraintTable{}, fmt.Errorf("failed to compile schema %s: %w", schemaID, err)
	}

	if s.constraints != nil {
		s.constraints.Put(schemaID, table)
	}
	return table, nil
}

// fetch tries every source in order. Not-found and unavailable fall
// through to the next source; any other failure aborts.
func (s *SchemaService) fetch(ctx context.Context, schemaID string) (string, error) {
	var last error
	for _, src := range s.sources {
		grammar, err := src.Fetch(ctx, schemaID)
		if err == nil {
			return grammar, nil
		}
		if errors.Is(err, domain.ErrSchemaNotFound) || errors.Is(err, domain.ErrSchemaUnavailable) {
			last = err
			continue
		}
		return "", fmt.Errorf("failed to fetch schema %s: %w", schemaID, err)
	}
	if last == nil {
		last = domain.ErrSchemaNotFound
	}
	return "", fmt.Errorf("schema %s: %w", schemaID, last)
}

// Resolve implements driving.SchemaService.
func (s *SchemaService) Resolve(ctx context.Context, doc *domain.Document, docKey string) (domain.ConformanceResult, error) {
	result := domain.ConformanceResult{}
	var strictest *domain.ValidationReport

	for _, id := range s.catalogIDs {
		table, err := s.Table(ctx, id)
		if err != nil {
			result.Notes = append(result.Notes, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		report := s.report(doc, docKey, table)
		result.Attempted = append(result.Attempted, id)
		if report.Pass() {
			result.EffectiveSchemaID = id
			result.Report = report
			return result, nil
		}
		// When nothing passes, the strictest failure is the one worth
		// reporting: it names everything standing between the document
		// and the highest conformance level.
		if strictest == nil {
			strictest = &report
		}
	}

	if strictest == nil {
		return result, fmt.Errorf("no catalog schema could be loaded: %w", domain.ErrSchemaUnavailable)
	}
	result.Report = *strictest
	return result, nil
}

// Validate implements driving.SchemaService.
func (s *SchemaService) Validate(ctx context.Context, doc *domain.Document, docKey, schemaID string) (domain.ValidationReport, error) {
	table, err := s.Table(ctx, schemaID)
	if err != nil {
		return domain.ValidationReport{}, err
	}
	return s.report(doc, docKey, table), nil
}

// ClearCaches implements driving.SchemaService.
func (s *SchemaService) ClearCaches() {
	if s.constraints != nil {
		s.constraints.Clear()
	}
	if s.reports != nil {
		s.reports.Clear()
	}
}

// report validates through the report cache. Reports are keyed by
// schema, document, and revision; an unkeyed document skips the cache.
func (s *SchemaService) report(doc *domain.Document, docKey string, table domain.ConstraintTable) domain.ValidationReport {
	key := domain.ReportKey{SchemaID: table.SchemaID, DocKey: docKey, Revision: doc.Revision}
	if s.reports != nil && docKey != "" {
		if report, ok := s.reports.Get(key); ok {
			return report
		}
	}
	report := s.validator.ValidateDocument(doc, table)
	if s.reports != nil && docKey != "" {
		s.reports.Put(key, report)
	}
	return report
}
