package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"eventpass/models"
	"eventpass/monitoring"
)

// StatsService keeps capacity state consistent and mirrors it into
// Redis for dashboards. The mirror is best effort: Redis being down
// never blocks a sale (the store transaction is the source of truth),
// it only degrades the live view.
type StatsService struct {
	store Store
	redis *redis.Client
}

func NewStatsService(store Store, redisClient *redis.Client) *StatsService {
	return &StatsService{store: store, redis: redisClient}
}

func statsKey(eventID string) string {
	return fmt.Sprintf("event:stats:%s", eventID)
}

func attendeesKey(eventID string) string {
	return fmt.Sprintf("event:attendees:%s", eventID)
}

// SyncSale mirrors a committed sale into Redis.
func (s *StatsService) SyncSale(ctx context.Context, eventID, userID string, soldSeats int) {
	monitoring.SetSoldSeats(eventID, soldSeats)

	if s.redis == nil {
		return
	}
	if err := s.redis.HSet(ctx, statsKey(eventID), "sold_seats", soldSeats).Err(); err != nil {
		slog.Error("stats: mirror sold seats failed", "eventId", eventID, "error", err)
		return
	}
	if err := s.redis.SAdd(ctx, attendeesKey(eventID), userID).Err(); err != nil {
		slog.Error("stats: mirror attendee failed", "eventId", eventID, "error", err)
	}
}

// SetCapacity overwrites max seats on the store and refreshes the
// mirror. By design it does not reject a new maximum below the current
// sold count; the original product allows it and the host dashboard
// simply shows the event as oversold.
func (s *StatsService) SetCapacity(ctx context.Context, eventID string, maxSeats int) error {
	if err := s.store.SetCapacity(ctx, eventID, maxSeats); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.HSet(ctx, statsKey(eventID), "max_seats", maxSeats).Err(); err != nil {
			slog.Error("stats: mirror capacity failed", "eventId", eventID, "error", err)
		}
	}
	return nil
}

// EventStats reports sold seats, capacity and the distinct attendee
// count, preferring the Redis mirror and falling back to the store.
func (s *StatsService) EventStats(ctx context.Context, eventID string) (*models.EventStats, error) {
	if s.redis != nil {
		stats, err := s.statsFromRedis(ctx, eventID)
		if err == nil {
			return stats, nil
		}
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &models.EventStats{
		EventID:   event.ID,
		SoldSeats: event.SoldSeats,
		MaxSeats:  event.MaxSeats,
		Attendees: len(event.Attendees),
	}, nil
}

func (s *StatsService) statsFromRedis(ctx context.Context, eventID string) (*models.EventStats, error) {
	values, err := s.redis.HGetAll(ctx, statsKey(eventID)).Result()
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("stats: no mirror for %s", eventID)
	}

	attendees, err := s.redis.SCard(ctx, attendeesKey(eventID)).Result()
	if err != nil {
		return nil, err
	}

	stats := &models.EventStats{EventID: eventID, Attendees: int(attendees)}
	fmt.Sscanf(values["sold_seats"], "%d", &stats.SoldSeats)
	fmt.Sscanf(values["max_seats"], "%d", &stats.MaxSeats)
	return stats, nil
}

// RebuildMirror reloads one event's counters into Redis, used by the
// serve hook after restart.
func (s *StatsService) RebuildMirror(ctx context.Context, event *models.Event) {
	if s.redis == nil {
		return
	}

	pipe := s.redis.Pipeline()
	pipe.HSet(ctx, statsKey(event.ID), map[string]any{
		"sold_seats": event.SoldSeats,
		"max_seats":  event.MaxSeats,
	})
	if len(event.Attendees) > 0 {
		members := make([]any, len(event.Attendees))
		for i, id := range event.Attendees {
			members[i] = id
		}
		pipe.SAdd(ctx, attendeesKey(event.ID), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("stats: rebuild mirror failed", "eventId", event.ID, "error", err)
	}
}
