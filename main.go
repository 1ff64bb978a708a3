package main

import (
	"context"
	"fmt"
	"os"

	configfile "github.com/custodia-labs/glossa-cli/internal/adapters/driven/config/file"
	schemafile "github.com/custodia-labs/glossa-cli/internal/adapters/driven/schema/file"
	"github.com/custodia-labs/glossa-cli/internal/adapters/driven/schema/httpfetch"
	"github.com/custodia-labs/glossa-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/glossa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/glossa-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/glossa-cli/internal/core/services"
	"github.com/custodia-labs/glossa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore(os.Getenv("GLOSSA_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("initializing config store: %w", err)
	}

	store, err := sqlite.NewStore(configStore.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	// Grammar sources: embedded built-ins plus any configured override
	// directories, then an optional HTTP registry as a fallback.
	fileSource := schemafile.NewSchemaSource(configStore.GetStringSlice("schema.dirs")...)
	sources := []driven.SchemaSource{fileSource}
	if registry := configStore.GetString("schema.registry"); registry != "" {
		httpSource, err := httpfetch.NewSchemaSource(registry)
		if err != nil {
			return fmt.Errorf("initializing schema registry: %w", err)
		}
		sources = append(sources, httpSource)
	}

	schemaService := services.NewSchemaService(
		sources,
		memory.NewConstraintCache(),
		memory.NewReportCache(),
		services.NewValidatorService(),
		schemafile.DefaultCatalog(),
	)

	workspaceService := services.NewWorkspaceService(
		services.NewCodecService(),
		services.NewEditorService(),
		services.NewEntityService(),
		schemaService,
		store.SessionStore(),
		configStore,
	)

	// Grammar edits in override directories invalidate the caches so
	// the next resolve recompiles.
	go func() {
		if err := fileSource.Watch(context.Background(), schemaService.ClearCaches); err != nil {
			logger.Debug("schema watcher stopped: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetServices(workspaceService, schemaService)
	return cli.Execute()
}
