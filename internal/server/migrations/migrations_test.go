package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedAndAnnotated(t *testing.T) {
	files, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, name := range files {
		b, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(b), "-- +goose Up"), "%s lacks goose Up section", name)
		assert.True(t, strings.Contains(string(b), "-- +goose Down"), "%s lacks goose Down section", name)
	}
}
