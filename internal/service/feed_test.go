package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadapp/quad/internal/domain"
)

type fakeFeedRepo struct {
	posts        []domain.Post
	composeErr   error
	composeCalls int
	created      []domain.Post
	createErr    error
}

func (f *fakeFeedRepo) ComposeFeed(_ context.Context, _ string, _ int) ([]domain.Post, error) {
	f.composeCalls++
	if f.composeErr != nil {
		return nil, f.composeErr
	}
	return f.posts, nil
}

func (f *fakeFeedRepo) CreatePost(_ context.Context, post domain.Post) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, post)
	return nil
}

type fakeImageStore struct {
	uploadedPath string
	uploadedData []byte
	uploadErr    error
}

func (f *fakeImageStore) UploadImage(_ context.Context, path string, data []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploadedPath = path
	f.uploadedData = data
	return "https://cdn.example/" + path, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetFeed_CachesWithinTTL(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedRepo{posts: []domain.Post{{ID: "p1"}}}
	svc := NewFeedService(repo, nil, discardLogger())

	first, err := svc.GetFeed(context.Background(), "u1", 20)
	require.NoError(t, err)
	second, err := svc.GetFeed(context.Background(), "u1", 20)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.composeCalls, "second read served from cache")
}

func TestGetFeed_CacheIsPerUser(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedRepo{posts: []domain.Post{{ID: "p1"}}}
	svc := NewFeedService(repo, nil, discardLogger())

	_, err := svc.GetFeed(context.Background(), "u1", 20)
	require.NoError(t, err)
	_, err = svc.GetFeed(context.Background(), "u2", 20)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.composeCalls)
}

func TestGetFeed_PropagatesError(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedRepo{composeErr: domain.ErrServerOffline}
	svc := NewFeedService(repo, nil, discardLogger())

	_, err := svc.GetFeed(context.Background(), "u1", 20)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestCreatePost_GeneratesIDAndInvalidatesCache(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedRepo{posts: []domain.Post{{ID: "old"}}}
	svc := NewFeedService(repo, nil, discardLogger())

	_, err := svc.GetFeed(context.Background(), "u1", 20)
	require.NoError(t, err)

	post, err := svc.CreatePost(context.Background(), domain.User{ID: "u1"}, "Sam", "c1", "hello campus", nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "u1", post.AuthorID)
	assert.Equal(t, "hello campus", post.Body)
	assert.WithinDuration(t, time.Now(), post.CreatedAt, time.Minute)
	require.Len(t, repo.created, 1)

	_, err = svc.GetFeed(context.Background(), "u1", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.composeCalls, "cache invalidated by the new post")
}

func TestCreatePost_UploadsImageFirst(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedRepo{}
	images := &fakeImageStore{}
	svc := NewFeedService(repo, images, discardLogger())

	post, err := svc.CreatePost(context.Background(), domain.User{ID: "u1"}, "Sam", "", "look at this", []byte{1, 2}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "posts/"+post.ID, images.uploadedPath)
	assert.Equal(t, "https://cdn.example/posts/"+post.ID, post.ImageURL)
}

func TestCreatePost_UploadFailureAbortsPost(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedRepo{}
	images := &fakeImageStore{uploadErr: errors.New("bucket gone")}
	svc := NewFeedService(repo, images, discardLogger())

	_, err := svc.CreatePost(context.Background(), domain.User{ID: "u1"}, "Sam", "", "text", []byte{1}, "image/png")
	require.Error(t, err)
	assert.Empty(t, repo.created, "post must not be created when the upload fails")
}
