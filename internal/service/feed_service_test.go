package service

import (
	"context"
	"testing"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_PaginatesEveryScope(t *testing.T) {
	env := newTestEnv(t)
	svc := env.feed()
	ctx := context.Background()

	leo := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "reader")
	cats := testutil.CreateGroup(t, env.db, "cats")
	testutil.CreatePosts(t, env.db, leo, cats, 15)
	testutil.Follow(t, env.db, reader, leo)
	viewer := middleware.Identity{UserID: reader.ID, Username: reader.Username}

	scopes := map[string]func(page string) (*FeedPage, error){
		"index": func(p string) (*FeedPage, error) { return svc.Index(ctx, p) },
		"group": func(p string) (*FeedPage, error) {
			_, feed, err := svc.Group(ctx, "cats", p)
			return feed, err
		},
		"profile": func(p string) (*FeedPage, error) {
			_, feed, err := svc.Profile(ctx, viewer, "leo", p)
			return feed, err
		},
		"follow": func(p string) (*FeedPage, error) { return svc.Follow(ctx, viewer, p) },
	}

	for name, load := range scopes {
		t.Run(name, func(t *testing.T) {
			first, err := load("")
			require.NoError(t, err)
			assert.Len(t, first.Posts, 10)
			assert.Equal(t, 1, first.Page.Number)
			assert.Equal(t, int64(15), first.Page.Count)

			second, err := load("2")
			require.NoError(t, err)
			assert.Len(t, second.Posts, 5)

			clamped, err := load("99")
			require.NoError(t, err)
			assert.Equal(t, 2, clamped.Page.Number)
			assert.Len(t, clamped.Posts, 5)
		})
	}
}

func TestFeedService_UnknownScopes(t *testing.T) {
	env := newTestEnv(t)
	svc := env.feed()
	ctx := context.Background()

	_, _, err := svc.Group(ctx, "nope", "")
	assert.True(t, models.IsNotFound(err))

	_, _, err = svc.Profile(ctx, middleware.Identity{}, "ghost", "")
	assert.True(t, models.IsNotFound(err))

	_, err = svc.Detail(ctx, middleware.Identity{}, 404)
	assert.True(t, models.IsNotFound(err))

	_, err = svc.Follow(ctx, middleware.Identity{}, "")
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestFeedService_EmptyFeedHasOnePage(t *testing.T) {
	env := newTestEnv(t)
	feed, err := env.feed().Index(context.Background(), "7")
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)
	assert.Equal(t, 1, feed.Page.Number)
	assert.Equal(t, 1, feed.Page.NumPages)
}

func TestFeedService_ProfileAndDetailSummary(t *testing.T) {
	env := newTestEnv(t)
	svc := env.feed()
	ctx := context.Background()

	leo := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "reader")
	posts := testutil.CreatePosts(t, env.db, leo, nil, 3)
	testutil.CreatePosts(t, env.db, reader, nil, 1)

	viewer := middleware.Identity{UserID: reader.ID, Username: "reader"}

	summary, _, err := svc.Profile(ctx, viewer, "leo", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.PostCount)
	assert.False(t, summary.Following)

	testutil.Follow(t, env.db, reader, leo)

	detail, err := svc.Detail(ctx, viewer, posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, posts[0].ID, detail.Post.ID)
	assert.Equal(t, "leo", detail.Author.Username)
	assert.Equal(t, int64(3), detail.PostCount)
	assert.True(t, detail.Following)

	anon, err := svc.Detail(ctx, middleware.Identity{}, posts[0].ID)
	require.NoError(t, err)
	assert.False(t, anon.Following)
}

func TestFeedService_FollowFeedTracksSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	svc := env.feed()
	follows := NewFollowService(env.follows, env.users)
	ctx := context.Background()

	leo := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "reader")
	post := testutil.CreatePost(t, env.db, leo, nil, "new chapter")
	viewer := middleware.Identity{UserID: reader.ID, Username: "reader"}

	feed, err := svc.Follow(ctx, viewer, "")
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)

	_, err = follows.Follow(ctx, viewer, "leo")
	require.NoError(t, err)
	feed, err = svc.Follow(ctx, viewer, "")
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, post.ID, feed.Posts[0].ID)

	_, err = follows.Unfollow(ctx, viewer, "leo")
	require.NoError(t, err)
	feed, err = svc.Follow(ctx, viewer, "")
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)
}
