// internal/repository/postgres/lead_source.go
package postgres

import (
	"context"
	"sync"

	"referral-service/internal/domain/lead"
	"referral-service/internal/stream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// leadChangeChannel carries change notifications between writers and
// subscribers. The payload is irrelevant: every message means "re-read".
const leadChangeChannel = "leads:changed"

// LeadSource is the production stream.Source: rows live in Postgres, change
// notifications travel over Redis pub/sub. Each notification triggers a full
// re-query, so emissions are always complete snapshots and bursts of writes
// naturally coalesce into fewer emissions.
type LeadSource struct {
	repo   *LeadRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewLeadSource(repo *LeadRepository, rdb *redis.Client, logger *zap.Logger) *LeadSource {
	return &LeadSource{repo: repo, rdb: rdb, logger: logger}
}

func (s *LeadSource) SubscribeLeads(ctx context.Context, scope stream.Scope) (<-chan []lead.Lead, func(), error) {
	initial, err := s.repo.List(ctx, scope.AffiliateID)
	if err != nil {
		return nil, nil, err
	}

	pubsub := s.rdb.Subscribe(ctx, leadChangeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan []lead.Lead, 1)
	out <- initial

	go func() {
		defer close(out)
		for range pubsub.Channel() {
			snap, err := s.repo.List(ctx, scope.AffiliateID)
			if err != nil {
				s.logger.Error("lead re-query failed, dropping feed", zap.Error(err))
				return
			}
			select {
			case out <- snap:
			default:
				select {
				case <-out:
				default:
				}
				out <- snap
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				s.logger.Warn("failed to close lead pubsub", zap.Error(err))
			}
		})
	}
	return out, stop, nil
}

func (s *LeadSource) CreateLead(ctx context.Context, draft lead.Draft) (string, error) {
	id, err := s.repo.Create(ctx, draft)
	if err != nil {
		return "", err
	}
	s.notify(ctx)
	return id, nil
}

func (s *LeadSource) UpdateLeadFields(ctx context.Context, id string, update lead.FieldUpdate) error {
	if err := s.repo.UpdateFields(ctx, id, update); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *LeadSource) notify(ctx context.Context) {
	if err := s.rdb.Publish(ctx, leadChangeChannel, "1").Err(); err != nil {
		// The write itself succeeded; subscribers catch up on the next change.
		s.logger.Warn("failed to publish lead change", zap.Error(err))
	}
}
