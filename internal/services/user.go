package services

import (
	"context"
	"fmt"
	"io"

	"github.com/messagely/apiserver/internal/storage"
	"github.com/messagely/apiserver/types"
)

// UserService encapsulates profile use-cases.
type UserService struct {
	repo    UserRepository
	avatars *storage.Storage
}

// NewUserService constructs a UserService. avatars may be nil when no object
// storage backend is configured.
func NewUserService(repo UserRepository, avatars *storage.Storage) *UserService {
	return &UserService{repo: repo, avatars: avatars}
}

func (s *UserService) All(ctx context.Context) ([]types.UserSummary, error) {
	return s.repo.All(ctx)
}

func (s *UserService) Get(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// AvatarsEnabled reports whether an object storage backend is configured.
func (s *UserService) AvatarsEnabled() bool {
	return s.avatars != nil
}

// UploadAvatar stores the user's profile picture in object storage.
func (s *UserService) UploadAvatar(ctx context.Context, username, contentType string, r io.Reader, size int64) error {
	if _, err := s.repo.GetByUsername(ctx, username); err != nil {
		return err
	}
	return s.avatars.Put(ctx, avatarKey(username), r, size, contentType)
}

// DownloadAvatar opens a reader for the user's profile picture.
func (s *UserService) DownloadAvatar(ctx context.Context, username string) (io.ReadCloser, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.avatars.Get(ctx, avatarKey(username))
}

func avatarKey(username string) string {
	return fmt.Sprintf("avatars/%s", username)
}
