package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/services"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/config"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds the dependencies commands work with.
type Deps struct {
	Config *config.Config
	Repo   *sqlite.Repository
	Logger *slog.Logger
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.SQLitePath(cwd)}, logger)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	return fn(&Deps{Config: cfg, Repo: repo, Logger: logger})
}

// relationType resolves the --type flag against the configured relation types.
func (d *Deps) relationType() (entities.RelationType, error) {
	return d.Config.RelationTypeByName(globalTypeName)
}

// node builds a plain relation node for the given PID argument.
func (d *Deps) node(arg string) (*services.Node, error) {
	relType, err := d.relationType()
	if err != nil {
		return nil, err
	}
	ref, err := parsePIDArg(arg)
	if err != nil {
		return nil, err
	}
	return services.NewNode(relType, ref, d.Repo, d.Repo), nil
}

// orderedNode builds an ordered relation node for the given PID argument.
// The --type flag must name an ordered relation type.
func (d *Deps) orderedNode(arg string) (*services.OrderedNode, error) {
	relType, err := d.relationType()
	if err != nil {
		return nil, err
	}
	ref, err := parsePIDArg(arg)
	if err != nil {
		return nil, err
	}
	return services.NewOrderedNode(relType, ref, d.Repo, d.Repo)
}

// parsePIDArg parses a "scheme:value" argument into a fetched PID reference.
func parsePIDArg(arg string) (entities.PIDRef, error) {
	scheme, value, ok := strings.Cut(arg, ":")
	if !ok || scheme == "" || value == "" {
		return entities.PIDRef{}, fmt.Errorf("invalid pid %q (expected scheme:value, e.g. doi:10.1234/abc)", arg)
	}
	return entities.Fetched(scheme, value, ""), nil
}
