package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ListUsers retrieves all users known to the server.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/api/users", &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// WhatsNew retrieves the server's summary of assignment activity since
// the given timestamp. The client only consumes this digest; activity
// records are generated and stored server-side.
func (c *Client) WhatsNew(ctx context.Context, since time.Time) (*model.ActivitySummary, error) {
	path := "/api/activity/whats-new?since=" +
		url.QueryEscape(since.UTC().Format(time.RFC3339))

	var summary model.ActivitySummary
	if err := c.get(ctx, path, &summary); err != nil {
		return nil, fmt.Errorf("fetching what's new: %w", err)
	}
	return &summary, nil
}
