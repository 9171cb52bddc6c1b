package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFilesAreOrdered(t *testing.T) {
	m := NewMigrator(nil)

	files, err := m.Files()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
	assert.IsNonDecreasing(t, files)
}

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", versionOf("001_init.sql"))
	assert.Equal(t, "002", versionOf("sql/002_add_index.sql"))
	assert.Equal(t, "003.sql", versionOf("003.sql"))
}
