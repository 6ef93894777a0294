package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tldrist/internal/domain"
)

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)

	err := repo.SaveRun(context.Background(), domain.RunReport{RunID: "r1"})
	require.NoError(t, err)

	seen, err := repo.AlreadySummarized(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestAlreadySummarizedEmptyIDs(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)

	seen, err := repo.AlreadySummarized(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, seen)
}
