package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/quadapp/quad/internal/domain"
)

// postRow is the wire shape of a posts table row / compose_feed RPC result
type postRow struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	ClubID     string    `json:"club_id"`
	Body       string    `json:"body"`
	ImageURL   string    `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// ComposeFeed returns the user's feed via the server-side composition RPC.
// Feed ordering and visibility rules live on the server.
func (c *Client) ComposeFeed(ctx context.Context, userID string, limit int) ([]domain.Post, error) {
	payload := map[string]interface{}{
		"p_user_id": userID,
		"p_limit":   limit,
	}

	var rows []postRow
	if err := c.doRequest(ctx, http.MethodPost, "/rest/v1/rpc/compose_feed", nil, payload, &rows); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, domain.Post{
			ID:         r.ID,
			AuthorID:   r.AuthorID,
			AuthorName: r.AuthorName,
			ClubID:     r.ClubID,
			Body:       r.Body,
			ImageURL:   r.ImageURL,
			CreatedAt:  r.CreatedAt,
		})
	}
	return posts, nil
}

// CreatePost inserts a new post row
func (c *Client) CreatePost(ctx context.Context, post domain.Post) error {
	row := postRow{
		ID:         post.ID,
		AuthorID:   post.AuthorID,
		AuthorName: post.AuthorName,
		ClubID:     post.ClubID,
		Body:       post.Body,
		ImageURL:   post.ImageURL,
		CreatedAt:  post.CreatedAt,
	}
	return c.doRequest(ctx, http.MethodPost, "/rest/v1/posts", nil, row, nil)
}
