package app

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-catalog-server/internal/service"
)

func TestNewLocalService(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc, release, err := NewLocalService(context.Background(),
		WithConfigManager(newTestManager(t, t.TempDir())),
		WithFilesystem(memfs.New()),
		WithFetcher(newTestFetcher(ctrl)),
	)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, release())
	}()

	result, err := svc.ListItems(context.Background(), service.WithSearch("lint"))
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Linter", result.Items[0].Name)
	assert.Empty(t, result.Errors)
}

func TestNewLocalService_LocksDataDir(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	_, release, err := NewLocalService(context.Background(), WithConfigManager(newTestManager(t, dataDir)))
	require.NoError(t, err)

	_, _, err = NewLocalService(context.Background(), WithConfigManager(newTestManager(t, dataDir)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use by another process")

	require.NoError(t, release())
}

func TestNewLocalService_RequiresConfigManager(t *testing.T) {
	t.Parallel()

	_, _, err := NewLocalService(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config manager is required")
}
