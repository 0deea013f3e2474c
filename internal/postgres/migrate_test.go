package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("SELECT 2;")},
		"m/0001_a.sql": {Data: []byte("SELECT 1;")},
		"m/README.md":  {Data: []byte("notes")},
		"m/0010_c.sql": {Data: []byte("SELECT 10;")},
	}

	migrations, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "0001_a", migrations[0].Version)
	assert.Equal(t, "0002_b", migrations[1].Version)
	assert.Equal(t, "0010_c", migrations[2].Version)
	assert.Equal(t, "SELECT 1;", migrations[0].SQL)
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "0001_subscriptions", migrations[0].Version)
	assert.Contains(t, migrations[1].SQL, "call_forward_numbers")
}
