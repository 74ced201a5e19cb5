package service

import (
	"context"
	"log/slog"

	"postdeck/internal/models"
)

// Gateway hands a recorded post to the platforms. Implementations must be
// safe for concurrent use.
type Gateway interface {
	Publish(ctx context.Context, post *models.ScheduledPost) error
}

// LogGateway publishes by logging the post. It never fails.
type LogGateway struct {
	Logger *slog.Logger
}

func (g LogGateway) Publish(ctx context.Context, post *models.ScheduledPost) error {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "post published",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("post_type", string(post.PostType)),
		slog.Any("platforms", post.Platforms),
		slog.Int("media", len(post.Media)),
	)
	return nil
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, post *models.ScheduledPost) error

func (f GatewayFunc) Publish(ctx context.Context, post *models.ScheduledPost) error {
	return f(ctx, post)
}
