package file

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/glossa-cli/internal/logger"
)

//go:embed grammars/*.rng
var grammars embed.FS

// builtinRefs describes the grammars shipped with the binary, ordered
// strictest first. The order doubles as the default resolution catalog.
var builtinRefs = []domain.SchemaRef{
	{
		ID:          "tei-dialogue-strict",
		Name:        "TEI Dialogue (strict)",
		Description: "Speech tags require an attributed speaker; entity references must resolve.",
	},
	{
		ID:          "tei-dialogue-base",
		Name:        "TEI Dialogue",
		Description: "Full dialogue vocabulary with optional speaker attribution.",
	},
	{
		ID:          "tei-minimal",
		Name:        "TEI Minimal",
		Description: "Permissive baseline: any dialogue tag anywhere, attributes unchecked.",
	},
}

// DefaultCatalog returns the built-in schema IDs in resolution order,
// strictest first.
func DefaultCatalog() []string {
	ids := make([]string, len(builtinRefs))
	for i, ref := range builtinRefs {
		ids[i] = ref.ID
	}
	return ids
}

// Ensure SchemaSource implements the driven ports.
var (
	_ driven.SchemaSource  = (*SchemaSource)(nil)
	_ driven.SchemaWatcher = (*SchemaSource)(nil)
)

// SchemaSource serves RelaxNG grammars from configured directories,
// falling back to the embedded built-ins. A grammar file is named
// <schema-id>.rng; a directory copy of a built-in ID overrides the
// embedded grammar, which is how users pin a patched schema locally.
type SchemaSource struct {
	dirs []string
	log  zerolog.Logger
}

// NewSchemaSource creates a schema source over the given directories.
// Directories are consulted in order before the embedded grammars.
// Missing directories are tolerated; they may appear later.
func NewSchemaSource(dirs ...string) *SchemaSource {
	return &SchemaSource{
		dirs: append([]string(nil), dirs...),
		log:  logger.With("schema-file"),
	}
}

// Fetch implements driven.SchemaSource.
func (s *SchemaSource) Fetch(ctx context.Context, schemaID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validSchemaID(schemaID) {
		return "", fmt.Errorf("schema id %q: %w", schemaID, domain.ErrSchemaNotFound)
	}

	name := schemaID + ".rng"
	for _, dir := range s.dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read grammar %s: %w", name, err)
		}
	}

	data, err := grammars.ReadFile("grammars/" + name)
	if err != nil {
		return "", fmt.Errorf("schema %q: %w", schemaID, domain.ErrSchemaNotFound)
	}
	return string(data), nil
}

// Refs implements driven.SchemaSource. Built-ins come first in catalog
// order, followed by directory grammars sorted by ID.
func (s *SchemaSource) Refs(ctx context.Context) ([]domain.SchemaRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	refs := append([]domain.SchemaRef(nil), builtinRefs...)
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		seen[ref.ID] = true
	}

	var extra []string
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rng") {
				continue
			}
			id := strings.TrimSuffix(entry.Name(), ".rng")
			if seen[id] {
				continue
			}
			seen[id] = true
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		refs = append(refs, domain.SchemaRef{ID: id, Name: id})
	}
	return refs, nil
}

// Watch implements driven.SchemaWatcher. It blocks until ctx is
// cancelled, invoking onChange after every grammar file change in the
// configured directories. Sources without directories return
// immediately; the embedded grammars cannot change at runtime.
func (s *SchemaSource) Watch(ctx context.Context, onChange func()) error {
	if len(s.dirs) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create schema watcher: %w", err)
	}
	defer watcher.Close()

	watching := 0
	for _, dir := range s.dirs {
		if err := watcher.Add(dir); err != nil {
			s.log.Warn().Str("dir", dir).Err(err).Msg("schema directory not watchable")
			continue
		}
		watching++
	}
	if watching == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".rng") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("grammar changed on disk")
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("schema watcher error")
		}
	}
}

// validSchemaID rejects IDs that could escape the grammar directories.
func validSchemaID(id string) bool {
	if id == "" {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
