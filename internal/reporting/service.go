package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"opsconsole/internal/workitem"

	"github.com/redis/go-redis/v9"
)

// Repository abstracts the count queries behind the KPI tiles.
//
// Implementations read the same committed work-item state the entity store
// serves; counts never wait on in-flight transitions.
type Repository interface {
	CountByStatus(ctx context.Context, status workitem.Status) (int, error)
	CountDecidedSince(ctx context.Context, status workitem.Status, since time.Time) (int, error)
	CountBreached(ctx context.Context, now time.Time) (int, error)
}

const (
	summaryCacheKey = "opsconsole:workitems:summary"

	defaultCacheTTL = 30 * time.Second
)

// Service aggregates the summary counts, with an optional Redis cache in
// front. Cache behavior is best-effort: a cache failure falls through to the
// repository and gets logged, never surfaced.
type Service struct {
	repo  Repository
	cache *redis.Client
	ttl   time.Duration
	clock func() time.Time
}

func NewService(repo Repository, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, clock: time.Now}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s.repo == nil {
		return Summary{}, errors.New("reporting: repository not configured")
	}

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, summaryCacheKey).Bytes()
		if err == nil {
			var cached Summary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("summary cache read failed", "err", err)
		}
	}

	out, err := s.compute(ctx)
	if err != nil {
		return Summary{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, raw, s.ttl).Err(); err != nil {
				slog.Warn("summary cache write failed", "err", err)
			}
		}
	}
	return out, nil
}

// Refresh recomputes the summary and rewrites the cache unconditionally. The
// SLA tick calls this so breach counts stay fresh as time advances even when
// nothing transitions.
func (s *Service) Refresh(ctx context.Context) (Summary, error) {
	out, err := s.compute(ctx)
	if err != nil {
		return Summary{}, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, raw, s.ttl).Err(); err != nil {
				slog.Warn("summary cache write failed", "err", err)
			}
		}
	}
	return out, nil
}

// Invalidate drops the cached summary. Wired as the workitem commit hook so
// tiles reflect decisions promptly.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey).Err(); err != nil {
		slog.Warn("summary cache invalidate failed", "err", err)
	}
}

func (s *Service) compute(ctx context.Context) (Summary, error) {
	now := s.clock().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	pending, err := s.repo.CountByStatus(ctx, workitem.StatusPending)
	if err != nil {
		return Summary{}, err
	}
	approved, err := s.repo.CountDecidedSince(ctx, workitem.StatusApproved, dayStart)
	if err != nil {
		return Summary{}, err
	}
	rejected, err := s.repo.CountDecidedSince(ctx, workitem.StatusRejected, dayStart)
	if err != nil {
		return Summary{}, err
	}
	breached, err := s.repo.CountBreached(ctx, now)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		PendingCount:       pending,
		ApprovedTodayCount: approved,
		RejectedTodayCount: rejected,
		BreachedCount:      breached,
		GeneratedAt:        now,
	}, nil
}
