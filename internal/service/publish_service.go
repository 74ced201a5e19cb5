package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"postdeck/internal/cache"
	"postdeck/internal/composer"
	"postdeck/internal/middleware"
	"postdeck/internal/models"
	"postdeck/internal/notifications"
	"postdeck/internal/observability"
	"postdeck/internal/repository"

	"github.com/adhocore/gronx"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotPublishable is wrapped by the error Submit returns for drafts that
// fail the publishability rules.
var ErrNotPublishable = errors.New("draft is not publishable")

// SubmitMode selects immediate publishing or scheduling.
type SubmitMode string

const (
	SubmitNow      SubmitMode = "now"
	SubmitSchedule SubmitMode = "schedule"
)

// SubmitInput is a finalized draft handed to the sink.
type SubmitInput struct {
	Snapshot     composer.Snapshot
	Mode         SubmitMode
	ScheduledFor *time.Time
	SessionID    string
}

// EventPublisher receives encoded sink events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, payload string) error
}

// PublishService records finalized drafts and hands them to the gateway.
type PublishService struct {
	posts    repository.ScheduledPostRepository
	settings repository.SettingsRepository
	gateway  Gateway
	events   EventPublisher
	now      func() time.Time
}

func NewPublishService(
	posts repository.ScheduledPostRepository,
	settings repository.SettingsRepository,
	gateway Gateway,
	events EventPublisher,
) *PublishService {
	if gateway == nil {
		gateway = LogGateway{Logger: middleware.Logger}
	}
	return &PublishService{
		posts:    posts,
		settings: settings,
		gateway:  gateway,
		events:   events,
		now:      time.Now,
	}
}

// Submit records the snapshot. Immediate posts are published through the
// gateway; scheduled posts get the requested time or the earliest best-time
// slot of the selected platforms.
func (s *PublishService) Submit(ctx context.Context, in SubmitInput) (post *models.ScheduledPost, err error) {
	ctx, span := observability.StartSpan(ctx, "publish.submit",
		attribute.String("mode", string(in.Mode)),
		attribute.Int("platforms", len(in.Snapshot.Platforms)),
	)
	defer func() { observability.EndSpan(span, err) }()

	mode := in.Mode
	if mode == "" {
		mode = SubmitNow
	}
	if mode != SubmitNow && mode != SubmitSchedule {
		return nil, models.NewValidationError(fmt.Sprintf("unknown submit mode %q", in.Mode))
	}

	if !in.Snapshot.Publishable {
		return nil, &models.AppError{
			Code:    models.CodeNotPublishable,
			Message: "Draft is not publishable: " + strings.Join(MissingRequirements(in.Snapshot), "; "),
			Err:     ErrNotPublishable,
		}
	}

	now := s.now()
	post = &models.ScheduledPost{
		Content:     in.Snapshot.Body,
		Title:       in.Snapshot.Title,
		Description: in.Snapshot.Description,
		PostType:    in.Snapshot.PostType,
		Tags:        in.Snapshot.Tags,
		Media:       in.Snapshot.MediaRefs(),
		Thumbnail:   in.Snapshot.ThumbnailRef(),
		Platforms:   in.Snapshot.Platforms,
	}

	switch mode {
	case SubmitSchedule:
		at, err := s.scheduleTime(ctx, in, now)
		if err != nil {
			return nil, err
		}
		post.ScheduledFor = at
		post.Status = models.PostStatusScheduled
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, err
		}
	default:
		post.ScheduledFor = now
		post.Status = models.PostStatusDraft
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, err
		}
		if gwErr := s.gateway.Publish(ctx, post); gwErr != nil {
			post.Status = models.PostStatusFailed
			post.FailureReason = gwErr.Error()
		} else {
			post.Status = models.PostStatusPublished
		}
		if err := s.posts.Update(ctx, post); err != nil {
			return nil, err
		}
	}

	observability.PostsSubmitted.WithLabelValues(string(mode), string(post.Status)).Inc()
	cache.InvalidateDashboard(ctx)
	s.publish(ctx, in.SessionID, post)

	middleware.Logger.InfoContext(ctx, "post submitted",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("mode", string(mode)),
		slog.String("status", string(post.Status)),
		slog.Time("scheduled_for", post.ScheduledFor),
	)
	return post, nil
}

func (s *PublishService) scheduleTime(ctx context.Context, in SubmitInput, now time.Time) (time.Time, error) {
	if in.ScheduledFor != nil {
		if !in.ScheduledFor.After(now) {
			return time.Time{}, models.NewValidationError("scheduled_for must be in the future")
		}
		return in.ScheduledFor.UTC(), nil
	}

	rows, err := s.settings.ListFor(ctx, in.Snapshot.Platforms)
	if err != nil {
		return time.Time{}, err
	}
	at, ok := NextSlot(rows, now.UTC())
	if !ok {
		return time.Time{}, models.NewValidationError(
			"No best time to post is configured for the selected platforms; provide scheduled_for")
	}
	return at, nil
}

// NextSlot returns the earliest cron tick after now across the best-time
// expressions of enabled platforms. Invalid expressions are skipped.
func NextSlot(settings []models.PlatformSettings, now time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for _, ps := range settings {
		if !ps.Enabled {
			continue
		}
		for _, expr := range ps.BestTimeToPost {
			next, err := gronx.NextTickAfter(expr, now, false)
			if err != nil {
				continue
			}
			if !found || next.Before(best) {
				best = next
				found = true
			}
		}
	}
	return best, found
}

// MissingRequirements lists what a draft lacks to be publishable.
func MissingRequirements(s composer.Snapshot) []string {
	var out []string
	if len(s.Platforms) == 0 {
		out = append(out, "select at least one platform")
	}
	if s.PostType == models.PostTypePost || s.PostType == "" {
		if strings.TrimSpace(s.Body) == "" && len(s.Media) == 0 {
			out = append(out, "add text or media")
		}
		return out
	}
	if len(s.Media) == 0 {
		out = append(out, fmt.Sprintf("a %s needs media", s.PostType))
	}
	if strings.TrimSpace(s.Title) == "" {
		out = append(out, fmt.Sprintf("a %s needs a title", s.PostType))
	}
	return out
}

func (s *PublishService) publish(ctx context.Context, sessionID string, post *models.ScheduledPost) {
	if s.events == nil {
		return
	}
	eventType := notifications.EventPostScheduled
	switch post.Status {
	case models.PostStatusPublished:
		eventType = notifications.EventPostPublished
	case models.PostStatusFailed:
		eventType = notifications.EventPostFailed
	}
	payload, err := notifications.Encode(eventType, sessionID, post)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode sink event", slog.String("error", err.Error()))
		return
	}
	if err := s.events.PublishEvent(ctx, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish sink event",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}
