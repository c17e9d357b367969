package service

import (
	"testing"

	"yatube/internal/repository"
	"yatube/internal/storage"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	posts   repository.PostRepository
	groups  repository.GroupRepository
	users   repository.UserRepository
	follows repository.FollowRepository
	images  *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return &testEnv{
		db:      db,
		posts:   repository.NewPostRepository(db),
		groups:  repository.NewGroupRepository(db),
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
		images:  NewImageService(store, 1<<20),
	}
}

func (e *testEnv) feed() *FeedService {
	return NewFeedService(e.posts, e.groups, e.users, e.follows)
}
