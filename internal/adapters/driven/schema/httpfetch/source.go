package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/glossa-cli/internal/logger"
)

const (
	// FetchRate throttles grammar requests per registry endpoint.
	FetchRate = 2 // requests per second

	// FetchBurst allows a short run of requests during resolution,
	// which walks the whole catalog in one pass.
	FetchBurst = 4

	// requestTimeout bounds a single grammar download.
	requestTimeout = 15 * time.Second

	// maxGrammarSize caps a grammar response at 4 MiB. Registry
	// grammars are a few KiB; anything near the cap is misconfigured.
	maxGrammarSize = 4 << 20
)

// Ensure SchemaSource implements the driven port.
var _ driven.SchemaSource = (*SchemaSource)(nil)

// SchemaSource fetches RelaxNG grammars from a remote registry over
// HTTP. A grammar lives at <baseURL>/<schema-id>.rng. The source
// cannot enumerate the registry, so Refs returns nothing and remote
// schemas appear in the catalog only by ID.
type SchemaSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewSchemaSource creates a schema source for a registry base URL.
func NewSchemaSource(baseURL string) (*SchemaSource, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid schema registry URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid schema registry URL %q: scheme must be http or https", baseURL)
	}

	return &SchemaSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Limit(FetchRate), FetchBurst),
		log:     logger.With("schema-http"),
	}, nil
}

// Fetch implements driven.SchemaSource. A 404 from the registry means
// the schema does not exist there and resolution falls through to the
// next source; network failures surface as domain.ErrSchemaUnavailable
// so a flaky registry degrades resolution instead of aborting it.
func (s *SchemaSource) Fetch(ctx context.Context, schemaID string) (string, error) {
	if schemaID == "" || strings.ContainsAny(schemaID, "/\\?#") {
		return "", fmt.Errorf("schema id %q: %w", schemaID, domain.ErrSchemaNotFound)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	endpoint := s.baseURL + "/" + url.PathEscape(schemaID) + ".rng"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build schema request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	s.log.Debug().Str("schema", schemaID).Str("url", endpoint).Msg("fetching grammar")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("schema registry %s: %w: %v", s.baseURL, domain.ErrSchemaUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to read the body.
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("schema %q: %w", schemaID, domain.ErrSchemaNotFound)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("schema registry %s returned %d: %w", s.baseURL, resp.StatusCode, domain.ErrSchemaUnavailable)
	default:
		return "", fmt.Errorf("schema registry %s returned unexpected status %d", s.baseURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGrammarSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read grammar %s: %w: %v", schemaID, domain.ErrSchemaUnavailable, err)
	}
	if len(data) > maxGrammarSize {
		return "", fmt.Errorf("grammar %s exceeds %d bytes", schemaID, maxGrammarSize)
	}
	return string(data), nil
}

// Refs implements driven.SchemaSource. Remote registries expose no
// listing endpoint.
func (s *SchemaSource) Refs(ctx context.Context) ([]domain.SchemaRef, error) {
	return nil, nil
}
