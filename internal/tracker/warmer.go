package tracker

import (
	"context"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-parcel-ledger/internal/kafka"
	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/redisx"
	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

// Warmer consumes ledger.changed and re-fetches the user's active snapshot so the next
// read is served from cache.
type Warmer struct {
	Service *Service
	Redis   *redis.Client
	Name    string
	Log     *zap.Logger
}

// Handle is a kafka consumer handler. Each event is processed once per warmer name.
func (w *Warmer) Handle(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		w.Log.Warn("skip undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventLedgerChanged {
		return nil
	}

	first, err := redisx.Once(ctx, w.Redis, w.Name, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.ChangedPayload](env.Payload)
	if err != nil {
		w.Log.Warn("skip bad payload", zap.String("event", env.EventID), zap.Error(err))
		return nil
	}

	if err := w.warm(ctx, p.UserID); err != nil {
		// let a redelivery try again
		if ferr := redisx.Forget(ctx, w.Redis, w.Name, env.EventID); ferr != nil {
			w.Log.Warn("dedup forget failed", zap.String("event", env.EventID), zap.Error(ferr))
		}
		return err
	}
	w.Log.Debug("snapshot warmed", zap.String("user", p.UserID), zap.String("entity", string(p.Entity)))
	return nil
}

func (w *Warmer) warm(ctx context.Context, userID string) error {
	if err := w.Service.Cache.Invalidate(ctx, userID); err != nil {
		return err
	}
	_, err := w.Service.Snapshot(ctx, userID, view.ArchiveActive)
	return err
}
