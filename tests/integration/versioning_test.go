package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/services"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/config"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/relationaldb/sqlite"
)

// TestVersioningWorkflow drives the full stack the way the CLI does: config
// on disk, a file-backed database, and version edges managed through an
// ordered node.
func TestVersioningWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, config.WriteDefault(dir))
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.SQLitePath(dir)}, nil)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.EnsureSchema(ctx))

	versionType, err := cfg.RelationTypeByName("version")
	require.NoError(t, err)
	require.True(t, versionType.Ordered)

	// A concept PID with three versions, like a record with revisions.
	concept, err := repo.Create(ctx, "recid", "1000", "", entities.PIDStatusRegistered)
	require.NoError(t, err)

	head, err := services.NewOrderedNode(versionType, entities.Resolved(concept), repo, repo)
	require.NoError(t, err)

	var versions []*entities.PID
	for i := 1; i <= 3; i++ {
		pid, err := repo.Create(ctx, "recid", fmt.Sprintf("1000.%d", i), "", entities.PIDStatusRegistered)
		require.NoError(t, err)
		require.NoError(t, head.InsertChild(ctx, entities.Resolved(pid), -1))
		versions = append(versions, pid)
	}

	// Navigate the chain.
	last, err := head.LastChild(ctx)
	require.NoError(t, err)
	assert.Equal(t, versions[2].ID, last.ID)

	next, err := head.NextChild(ctx, entities.Resolved(versions[0]))
	require.NoError(t, err)
	assert.Equal(t, versions[1].ID, next.ID)

	// Retract the middle version and hide it from listings.
	require.NoError(t, repo.SetStatus(ctx, versions[1].ID, entities.PIDStatusDeleted))
	visible, err := head.Children().Status(entities.PIDStatusRegistered).All(ctx)
	require.NoError(t, err)
	require.Len(t, visible, 2)

	// Remove it entirely; the survivors compact to a dense sequence.
	require.NoError(t, head.RemoveChild(ctx, entities.Resolved(versions[1]), true))

	idx, err := head.Index(ctx, entities.Resolved(versions[2]))
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 1, *idx)

	// A fetched reference works against the same store without resolving
	// up front.
	byValue, err := services.NewOrderedNode(versionType, entities.Fetched("recid", "1000", ""), repo, repo)
	require.NoError(t, err)
	count, err := byValue.Children().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
