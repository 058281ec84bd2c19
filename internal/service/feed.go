package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quadapp/quad/internal/domain"
)

const feedCacheTTL = 30 * time.Second

// FeedService provides the composed social feed with memory caching.
// Feed content changes frequently, so there is no disk persistence.
type FeedService struct {
	repo   domain.FeedRepository
	images domain.ImageStore
	logger *slog.Logger

	cacheMu   sync.RWMutex
	posts     []domain.Post
	cacheUser string
	cacheTime time.Time
}

// NewFeedService creates a new feed service
func NewFeedService(repo domain.FeedRepository, images domain.ImageStore, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedService{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// GetFeed returns the user's composed feed (cached briefly)
func (s *FeedService) GetFeed(ctx context.Context, userID string, limit int) ([]domain.Post, error) {
	s.cacheMu.RLock()
	if s.posts != nil && s.cacheUser == userID && time.Since(s.cacheTime) < feedCacheTTL {
		cached := s.posts
		s.cacheMu.RUnlock()
		return cached, nil
	}
	s.cacheMu.RUnlock()

	posts, err := s.repo.ComposeFeed(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to compose feed", "error", err, "user_id", userID)
		return nil, err
	}

	s.cacheMu.Lock()
	s.posts = posts
	s.cacheUser = userID
	s.cacheTime = time.Now()
	s.cacheMu.Unlock()

	s.logger.Debug("feed loaded", "user_id", userID, "posts", len(posts))
	return posts, nil
}

// CreatePost publishes a new post, uploading the attached image first when
// one is provided. The post ID is generated client-side so the feed can
// show the entry before the server round-trip completes.
func (s *FeedService) CreatePost(ctx context.Context, author domain.User, authorName, clubID, body string, image []byte, imageType string) (*domain.Post, error) {
	post := domain.Post{
		ID:         uuid.NewString(),
		AuthorID:   author.ID,
		AuthorName: authorName,
		ClubID:     clubID,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}

	if len(image) > 0 {
		if s.images == nil {
			return nil, fmt.Errorf("image uploads are not configured")
		}
		imagePath := path.Join("posts", post.ID)
		url, err := s.images.UploadImage(ctx, imagePath, image, imageType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload post image: %w", err)
		}
		post.ImageURL = url
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.InvalidateCache()
	return &post, nil
}

// InvalidateCache drops the cached feed so the next read refetches
func (s *FeedService) InvalidateCache() {
	s.cacheMu.Lock()
	s.posts = nil
	s.cacheMu.Unlock()
}
