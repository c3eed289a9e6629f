package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/mocks"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/config"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/relationaldb/sqlite"
)

var (
	versionType    = entities.RelationType{ID: 0, Name: "version", Ordered: true}
	collectionType = entities.RelationType{ID: 1, Name: "collection", Ordered: false}
)

// setupTestRepo creates a SQLite repository on a temp file for testing.
func setupTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relations.db")
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

// createTestPID registers a PID with registered status.
func createTestPID(t *testing.T, repo *sqlite.Repository, pidValue string) *entities.PID {
	t.Helper()
	pid, err := repo.Create(context.Background(), "doi", pidValue, "", entities.PIDStatusRegistered)
	require.NoError(t, err)
	return pid
}

func TestNode_ResolvedPID(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a fetched reference once", func(t *testing.T) {
		pids := mocks.NewPIDStore()
		stored, err := pids.Create(ctx, "doi", "10.1234/a", "", entities.PIDStatusRegistered)
		require.NoError(t, err)

		node := NewNode(collectionType, entities.Fetched("doi", "10.1234/a", ""), nil, pids)

		got, err := node.ResolvedPID(ctx)
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)

		_, err = node.ResolvedPID(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, pids.ResolveCallCount)
	})

	t.Run("resolved reference skips the store", func(t *testing.T) {
		pids := mocks.NewPIDStore()
		pid := &entities.PID{ID: 42, PIDType: "doi", PIDValue: "10.1234/b"}

		node := NewNode(collectionType, entities.Resolved(pid), nil, pids)

		got, err := node.ResolvedPID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.ID)
		assert.Equal(t, 0, pids.ResolveCallCount)
	})

	t.Run("missing pid returns PIDNotFoundError", func(t *testing.T) {
		node := NewNode(collectionType, entities.Fetched("doi", "10.9999/nope", ""), nil, mocks.NewPIDStore())

		_, err := node.ResolvedPID(ctx)
		var notFound *entities.PIDNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestNode_InsertChild(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	parent := createTestPID(t, repo, "10.1234/parent")
	child := createTestPID(t, repo, "10.1234/child")

	node := NewNode(collectionType, entities.Resolved(parent), repo, repo)

	t.Run("creates an unordered edge", func(t *testing.T) {
		err := node.InsertChild(ctx, entities.Resolved(child))
		require.NoError(t, err)

		rel, err := repo.GetRelation(ctx, parent.ID, child.ID, collectionType.ID)
		require.NoError(t, err)
		assert.Nil(t, rel.Index)
	})

	t.Run("duplicate insert returns ConsistencyError", func(t *testing.T) {
		err := node.InsertChild(ctx, entities.Resolved(child))
		var consistency *entities.ConsistencyError
		require.ErrorAs(t, err, &consistency)
	})

	t.Run("unresolvable child leaves no edge behind", func(t *testing.T) {
		err := node.InsertChild(ctx, entities.Fetched("doi", "10.9999/ghost", ""))
		var notFound *entities.PIDNotFoundError
		require.ErrorAs(t, err, &notFound)

		count, err := node.Children().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestNode_QueriesAndPredicates(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	parent := createTestPID(t, repo, "10.1234/parent")
	childA := createTestPID(t, repo, "10.1234/a")
	childB := createTestPID(t, repo, "10.1234/b")

	parentNode := NewNode(collectionType, entities.Resolved(parent), repo, repo)
	require.NoError(t, parentNode.InsertChild(ctx, entities.Resolved(childA)))
	require.NoError(t, parentNode.InsertChild(ctx, entities.Resolved(childB)))

	childNode := NewNode(collectionType, entities.Resolved(childA), repo, repo)

	t.Run("children and parents", func(t *testing.T) {
		children, err := parentNode.Children().All(ctx)
		require.NoError(t, err)
		assert.Len(t, children, 2)

		parents, err := childNode.Parents().All(ctx)
		require.NoError(t, err)
		require.Len(t, parents, 1)
		assert.Equal(t, parent.ID, parents[0].ID)
	})

	t.Run("is parent and is child", func(t *testing.T) {
		isParent, err := parentNode.IsParent(ctx)
		require.NoError(t, err)
		assert.True(t, isParent)

		isChild, err := parentNode.IsChild(ctx)
		require.NoError(t, err)
		assert.False(t, isChild)

		isChild, err = childNode.IsChild(ctx)
		require.NoError(t, err)
		assert.True(t, isChild)

		isParent, err = childNode.IsParent(ctx)
		require.NoError(t, err)
		assert.False(t, isParent)
	})

	t.Run("status filter on children", func(t *testing.T) {
		require.NoError(t, repo.SetStatus(ctx, childB.ID, entities.PIDStatusDeleted))

		registered, err := parentNode.Children().Status(entities.PIDStatusRegistered).All(ctx)
		require.NoError(t, err)
		require.Len(t, registered, 1)
		assert.Equal(t, childA.ID, registered[0].ID)
	})
}

func TestNode_ChildLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("max children", func(t *testing.T) {
		repo := setupTestRepo(t)
		parent := createTestPID(t, repo, "10.1/parent")
		node := NewNode(collectionType, entities.Resolved(parent), repo, repo, WithMaxChildren(2))

		require.NoError(t, node.InsertChild(ctx, entities.Resolved(createTestPID(t, repo, "10.1/a"))))
		require.NoError(t, node.InsertChild(ctx, entities.Resolved(createTestPID(t, repo, "10.1/b"))))

		err := node.InsertChild(ctx, entities.Resolved(createTestPID(t, repo, "10.1/c")))
		var consistency *entities.ConsistencyError
		require.ErrorAs(t, err, &consistency)

		count, err := node.Children().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("max parents", func(t *testing.T) {
		repo := setupTestRepo(t)
		parentA := createTestPID(t, repo, "10.2/parent-a")
		parentB := createTestPID(t, repo, "10.2/parent-b")
		child := createTestPID(t, repo, "10.2/child")

		nodeA := NewNode(collectionType, entities.Resolved(parentA), repo, repo, WithMaxParents(1))
		nodeB := NewNode(collectionType, entities.Resolved(parentB), repo, repo, WithMaxParents(1))

		require.NoError(t, nodeA.InsertChild(ctx, entities.Resolved(child)))

		err := nodeB.InsertChild(ctx, entities.Resolved(child))
		var consistency *entities.ConsistencyError
		require.ErrorAs(t, err, &consistency)
	})
}

func TestNode_RemoveChild(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	parent := createTestPID(t, repo, "10.1234/parent")
	child := createTestPID(t, repo, "10.1234/child")

	node := NewNode(collectionType, entities.Resolved(parent), repo, repo)
	require.NoError(t, node.InsertChild(ctx, entities.Resolved(child)))

	t.Run("removes the edge", func(t *testing.T) {
		err := node.RemoveChild(ctx, entities.Resolved(child))
		require.NoError(t, err)

		isParent, err := node.IsParent(ctx)
		require.NoError(t, err)
		assert.False(t, isParent)
	})

	t.Run("missing edge returns RelationNotFoundError", func(t *testing.T) {
		err := node.RemoveChild(ctx, entities.Resolved(child))
		var notFound *entities.RelationNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}
