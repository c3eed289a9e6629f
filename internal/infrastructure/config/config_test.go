package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	version, err := cfg.RelationTypeByName("version")
	require.NoError(t, err)
	assert.True(t, version.Ordered)

	collection, err := cfg.RelationTypeByName("collection")
	require.NoError(t, err)
	assert.False(t, collection.Ordered)
}

func TestLoad(t *testing.T) {
	t.Run("missing config mentions init", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pidrel init")
	})

	t.Run("round trip through WriteDefault", func(t *testing.T) {
		dir := t.TempDir()
		require.False(t, Exists(dir))

		require.NoError(t, WriteDefault(dir))
		require.True(t, Exists(dir))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Len(t, cfg.RelationTypes, 2)

		rt, err := cfg.RelationTypeByID(0)
		require.NoError(t, err)
		assert.Equal(t, "version", rt.Name)
	})

	t.Run("write default twice fails", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		require.Error(t, WriteDefault(dir))
	})

	t.Run("rejects duplicate relation type ids", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &Config{RelationTypes: []entities.RelationType{
			{ID: 0, Name: "version", Ordered: true},
			{ID: 0, Name: "collection"},
		}}
		require.NoError(t, Write(dir, cfg))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "share id")
	})

	t.Run("rejects duplicate relation type names", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &Config{RelationTypes: []entities.RelationType{
			{ID: 0, Name: "version", Ordered: true},
			{ID: 1, Name: "version"},
		}}
		require.NoError(t, Write(dir, cfg))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("rejects unnamed relation types", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &Config{RelationTypes: []entities.RelationType{{ID: 3}}}
		require.NoError(t, Write(dir, cfg))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no name")
	})
}

func TestSQLitePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/base", DefaultConfigDir, DefaultDBFile), cfg.SQLitePath("/base"))

	cfg.SQLite.Path = "/custom/relations.db"
	assert.Equal(t, "/custom/relations.db", cfg.SQLitePath("/base"))
}

func TestRelationTypeLookups(t *testing.T) {
	cfg := Default()

	_, err := cfg.RelationTypeByName("nonsense")
	require.Error(t, err)

	_, err = cfg.RelationTypeByID(42)
	require.Error(t, err)
}
