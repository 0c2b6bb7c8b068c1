// Package tracker is the application service: it serves reconciled snapshots and applies
// mutations to the backing store, invalidating caches and announcing every change.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-parcel-ledger/internal/config"
	kafkax "github.com/ariefcatur/go-parcel-ledger/internal/kafka"
	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

// Cache holds fetched snapshots per user and scope. Put only stores when no Invalidate ran
// since gen was read from Generation.
type Cache interface {
	Get(ctx context.Context, userID, scope string) (orders.Snapshot, bool, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Put(ctx context.Context, userID, scope string, gen int64, snap orders.Snapshot) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

type Publisher interface {
	Emit(key []byte, env orders.Envelope)
}

type Service struct {
	Store  orders.Backend
	Cache  Cache
	Events Publisher
	Prefs  config.Preferences
	Log    *zap.Logger
	Name   string

	validate *validator.Validate
	now      func() time.Time
}

func NewService(store orders.Backend, cache Cache, events Publisher, prefs config.Preferences, log *zap.Logger, name string) *Service {
	return &Service{
		Store:    store,
		Cache:    cache,
		Events:   events,
		Prefs:    prefs,
		Log:      log,
		Name:     name,
		validate: newValidator(),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("parcel_status", func(fl validator.FieldLevel) bool {
		return orders.ParcelStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("item_status", func(fl validator.FieldLevel) bool {
		return orders.ItemStatus(fl.Field().String()).Valid()
	})
	// a cleared or absent Nullable validates like a nil pointer
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if p := f.Interface().(orders.Nullable[float64]).Ptr(); p != nil {
			return *p
		}
		return nil
	}, orders.Nullable[float64]{})
	return v
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on %s", orders.ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", orders.ErrValidation, err)
	}
	return nil
}

// scope is the cache field for a mode. All and archived fetch the same broad snapshot.
func scope(m view.ArchiveMode) string {
	if m == view.ArchiveActive {
		return string(view.ArchiveActive)
	}
	return "broad"
}

// Snapshot returns the user's orders (with items) and parcels as the archive mode requests
// them from the store. Store failures come back as *orders.FetchError.
func (s *Service) Snapshot(ctx context.Context, userID string, mode view.ArchiveMode) (orders.Snapshot, error) {
	key := scope(mode)
	if snap, ok, err := s.Cache.Get(ctx, userID, key); err != nil {
		s.Log.Warn("snapshot cache read failed", zap.String("user", userID), zap.Error(err))
	} else if ok {
		return snap, nil
	}
	gen, genErr := s.Cache.Generation(ctx, userID)
	if genErr != nil {
		s.Log.Warn("snapshot generation read failed", zap.String("user", userID), zap.Error(genErr))
	}

	orderOpt, parcelOpt := mode.Scope()
	list, err := s.Store.ListOrders(ctx, userID, orderOpt)
	if err != nil {
		return orders.Snapshot{}, &orders.FetchError{Op: "list orders", Err: err}
	}
	ps, err := s.Store.ListParcels(ctx, userID, parcelOpt)
	if err != nil {
		return orders.Snapshot{}, &orders.FetchError{Op: "list parcels", Err: err}
	}
	snap := orders.Snapshot{Orders: list, Parcels: ps, FetchedAt: s.now().UTC()}

	if genErr != nil {
		return snap, nil
	}
	if stored, err := s.Cache.Put(ctx, userID, key, gen, snap); err != nil {
		s.Log.Warn("snapshot cache write failed", zap.String("user", userID), zap.Error(err))
	} else if !stored {
		s.Log.Debug("snapshot superseded by a write, not cached", zap.String("user", userID), zap.String("scope", key))
	}
	return snap, nil
}

func (s *Service) Reconciled(ctx context.Context, userID string, mode view.ArchiveMode) (reconcile.Result, error) {
	snap, err := s.Snapshot(ctx, userID, mode)
	if err != nil {
		return reconcile.Result{}, err
	}
	return reconcile.Reconcile(snap), nil
}

// changed runs after every successful write: drop the user's cached snapshots, then announce.
func (s *Service) changed(ctx context.Context, userID string, entity orders.Entity, id string, action orders.Action) {
	if err := s.Cache.Invalidate(ctx, userID); err != nil {
		s.Log.Warn("snapshot cache invalidate failed", zap.String("user", userID), zap.Error(err))
	}
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventLedgerChanged,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.Name,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: userID,
		Payload: kafkax.MustMarshal(orders.ChangedPayload{
			UserID: userID, Entity: entity, EntityID: id, Action: action,
		}),
	}
	s.Events.Emit(orders.PartitionKey(userID), env)
	s.Log.Debug("ledger changed",
		zap.String("user", userID), zap.String("entity", string(entity)), zap.String("id", id), zap.String("action", string(action)))
}

func archiveAction(archived *bool) orders.Action {
	switch {
	case archived == nil:
		return orders.ActionUpdated
	case *archived:
		return orders.ActionArchived
	}
	return orders.ActionUnarchived
}
