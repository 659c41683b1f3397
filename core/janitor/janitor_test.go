package janitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"Audiotheque/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, *storage.BucketStats, error) {
	args := m.Called(ctx, prefix)
	objs, _ := args.Get(0).([]storage.ObjectInfo)
	return objs, &storage.BucketStats{TotalObjects: int64(len(objs))}, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type staticKeys struct {
	keys []string
	err  error
}

func (s staticKeys) ListPublicIDs(context.Context) ([]string, error) {
	return s.keys, s.err
}

func TestSweep_DeletesOnlyOldOrphans(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	old := now.Add(-2 * time.Hour)

	store := &mockStore{}
	store.On("List", mock.Anything, storage.AudioPrefix).Return([]storage.ObjectInfo{
		{Key: "audio/kept.mp3", Size: 10, LastModified: old},
		{Key: "audio/orphan.mp3", Size: 2048, LastModified: old},
		{Key: "audio/fresh.mp3", Size: 99, LastModified: now.Add(-time.Minute)},
		{Key: "audio/broken.mp3", Size: 5, LastModified: old},
	}, nil)
	store.On("Delete", mock.Anything, "audio/orphan.mp3").Return(nil)
	store.On("Delete", mock.Anything, "audio/broken.mp3").Return(errors.New("denied"))

	j := New(store, staticKeys{keys: []string{"audio/kept.mp3"}}, time.Hour)
	j.now = func() time.Time { return now }

	report, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 4, Deleted: 1, Freed: 2048, Failed: 1}, report)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Delete", mock.Anything, "audio/kept.mp3")
	store.AssertNotCalled(t, "Delete", mock.Anything, "audio/fresh.mp3")
}

func TestSweep_KeySourceError(t *testing.T) {
	store := &mockStore{}
	j := New(store, staticKeys{err: errors.New("db down")}, time.Hour)

	_, err := j.Sweep(context.Background())
	assert.Error(t, err)
	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSweep_ListError(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, storage.AudioPrefix).Return(nil, errors.New("minio down"))

	_, err := New(store, staticKeys{}, time.Hour).Sweep(context.Background())
	assert.Error(t, err)
}

func TestStart_InvalidSchedule(t *testing.T) {
	j := New(&mockStore{}, staticKeys{}, time.Hour)
	assert.Error(t, j.Start("every tuesday"))
}

func TestStartStop(t *testing.T) {
	j := New(&mockStore{}, staticKeys{}, time.Hour)
	require.NoError(t, j.Start("@daily"))
	j.Stop()
}
