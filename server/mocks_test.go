package server

import (
	"context"
	"io"

	"Audiotheque/core/audio"
	"Audiotheque/core/auth"
	"Audiotheque/model"
	"Audiotheque/storage"

	"github.com/stretchr/testify/mock"
)

type MockPlaylistRepository struct {
	mock.Mock
}

func (m *MockPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) Get(ctx context.Context, id string) (*model.Playlist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) Create(ctx context.Context, name string) (*model.Playlist, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) Rename(ctx context.Context, id, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockPlaylistRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPlaylistRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockAudioRepository struct {
	mock.Mock
}

func (m *MockAudioRepository) ListAll(ctx context.Context) ([]model.Audio, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Audio), args.Error(1)
}

func (m *MockAudioRepository) ListByPlaylist(ctx context.Context, playlistID string) ([]model.Audio, error) {
	args := m.Called(ctx, playlistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Audio), args.Error(1)
}

func (m *MockAudioRepository) Get(ctx context.Context, id string) (*model.Audio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Audio), args.Error(1)
}

func (m *MockAudioRepository) Create(ctx context.Context, a *model.Audio) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAudioRepository) Update(ctx context.Context, a *model.Audio) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAudioRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAudioRepository) CountByPlaylist(ctx context.Context, playlistID string) (int64, error) {
	args := m.Called(ctx, playlistID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAudioRepository) ListPublicIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) UpsertOnLogin(ctx context.Context, email, displayName string, r model.Role) (*model.User, error) {
	args := m.Called(ctx, email, displayName, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	args := m.Called(ctx, filename, r, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockMediaStore) Open(ctx context.Context, key string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadSeekCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, path string) (*audio.Info, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audio.Info), args.Error(1)
}

type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, state, returnTo string) error {
	return m.Called(ctx, state, returnTo).Error(0)
}

func (m *MockStateStore) Consume(ctx context.Context, state string) (string, bool, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Bool(1), args.Error(2)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockIdentityProvider) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (*auth.Identity, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Identity), args.Error(1)
}
