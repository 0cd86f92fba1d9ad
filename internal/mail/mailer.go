// Package mail delivers raid reports to player mailboxes and fans the
// resolution out to Redis (unread counters) and RabbitMQ (raid.resolved
// events).
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mgmcelwee/evony/internal/game"
	"github.com/mgmcelwee/evony/internal/model"
	"github.com/mgmcelwee/evony/internal/queue"
	"github.com/mgmcelwee/evony/internal/repository"
	queue_publisher "github.com/mgmcelwee/evony/internal/service"
)

// KindRaidReport tags mailbox messages produced by raid resolutions.
const KindRaidReport = "raid_report"

// Service implements game.Mailer.  The Redis client may be nil, in which
// case unread counters fall back to the database count alone.
type Service struct {
	repo *repository.MailRepo
	rdb  *redis.Client
}

// NewService wires a mail Service.
func NewService(repo *repository.MailRepo, rdb *redis.Client) *Service {
	return &Service{repo: repo, rdb: rdb}
}

// UnreadKey is the Redis key holding a user's unread message counter.
func UnreadKey(userID uint64) string {
	return fmt.Sprintf("mail:unread:%d", userID)
}

// DeliverRaidReport writes the report into the recipient's mailbox with the
// full summary attached as JSON.
func (s *Service) DeliverRaidReport(ctx context.Context, userID uint64, sum game.RaidSummary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal raid summary: %w", err)
	}
	p := string(payload)

	msg := &model.MailMessage{
		UserID:      userID,
		Kind:        KindRaidReport,
		Subject:     fmt.Sprintf("Raid report: %s vs %s", sum.AttackerCityName, sum.DefenderCityName),
		Body:        summaryBody(sum),
		PayloadJSON: &p,
		CreatedAt:   time.Now().UTC(),
	}
	return s.repo.Create(ctx, msg)
}

// IncrementUnread bumps the recipient's unread counter in Redis.  Without a
// Redis connection this is a no-op; UnreadCount recomputes from the database
// anyway.
func (s *Service) IncrementUnread(ctx context.Context, userID uint64, kind string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Incr(ctx, UnreadKey(userID)).Err()
}

// DecrementUnread lowers the counter when a message is marked read, floored
// at zero.
func (s *Service) DecrementUnread(ctx context.Context, userID uint64) {
	if s.rdb == nil {
		return
	}
	n, err := s.rdb.Decr(ctx, UnreadKey(userID)).Result()
	if err != nil {
		log.Printf("mail: decrement unread for user %d failed: %v", userID, err)
		return
	}
	if n < 0 {
		_ = s.rdb.Set(ctx, UnreadKey(userID), 0, 0).Err()
	}
}

// UnreadCount reads the cached counter, recomputing it from the database
// when the key is missing or Redis is unavailable.
func (s *Service) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	if s.rdb != nil {
		n, err := s.rdb.Get(ctx, UnreadKey(userID)).Int64()
		if err == nil {
			return n, nil
		}
	}
	n, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		_ = s.rdb.Set(ctx, UnreadKey(userID), n, 0).Err()
	}
	return n, nil
}

// PublishResolved announces the resolution on the raid.resolved queue.
func (s *Service) PublishResolved(ctx context.Context, sum game.RaidSummary) error {
	return queue_publisher.PublishRaidResolved(ctx, queue.RaidResolvedEvent{
		RaidID:           sum.RaidID,
		AttackerCityID:   sum.AttackerCityID,
		AttackerCityName: sum.AttackerCityName,
		DefenderCityID:   sum.DefenderCityID,
		DefenderCityName: sum.DefenderCityName,
		Outcome:          sum.Outcome,
		AttackerSent:     sum.AttackerSent,
		AttackerLost:     sum.AttackerLost,
		DefenderLost:     sum.DefenderLost,
		LootFood:         sum.Loot.Food,
		LootWood:         sum.Loot.Wood,
		LootStone:        sum.Loot.Stone,
		LootIron:         sum.Loot.Iron,
		ResolvedAt:       sum.ResolvedAt.UTC().Format(time.RFC3339),
	})
}

// summaryBody renders the human-readable message text.
func summaryBody(sum game.RaidSummary) string {
	outcome := sum.Outcome
	if outcome == "" {
		outcome = "uncontested"
	}
	return fmt.Sprintf(
		"%s raided %s (%s). Troops: %d sent, %d lost, %d returned. Defender lost %d of %d. Loot: %d food, %d wood, %d stone, %d iron.",
		sum.AttackerCityName, sum.DefenderCityName, outcome,
		sum.AttackerSent, sum.AttackerLost, sum.AttackerReturning(),
		sum.DefenderLost, sum.DefenderStart,
		sum.Loot.Food, sum.Loot.Wood, sum.Loot.Stone, sum.Loot.Iron,
	)
}
