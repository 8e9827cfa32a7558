package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/awaistahir/eterna/internal/config"
	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/session"
	"github.com/awaistahir/eterna/internal/store"
)

// dashboardPublisher is satisfied by *publisher.Publisher
type dashboardPublisher interface {
	Publish(d engine.Dashboard) error
}

// refresher draws a reading on every tick, learns habits from its own history
// and publishes the resulting dashboard
type refresher struct {
	cfg       *config.Config
	store     *store.Store
	source    engine.UsageSource
	session   *session.Session
	publisher dashboardPublisher
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

func newRefresher(cfg *config.Config, st *store.Store, src engine.UsageSource, pub dashboardPublisher, logger *zap.Logger) (*refresher, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	sess, err := session.NewRegistry(session.DefaultCapacity).Create(nil)
	if err != nil {
		return nil, err
	}
	return &refresher{
		cfg:       cfg,
		store:     st,
		source:    src,
		session:   sess,
		publisher: pub,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}, nil
}

// refresh runs one cycle and returns the published dashboard
func (r *refresher) refresh() (engine.Dashboard, error) {
	at := r.now().In(r.loc)

	usage, err := r.source.Snapshot(at)
	if err != nil {
		return engine.Dashboard{}, err
	}
	habits, err := r.session.Record(engine.HistoryEntry{Timestamp: at, Usage: usage})
	if err != nil {
		return engine.Dashboard{}, err
	}

	prefs, err := r.store.HouseholdOrDefault(store.DefaultHousehold)
	if err != nil {
		return engine.Dashboard{}, err
	}
	tariff, err := r.store.TariffOr(store.DefaultHousehold, r.cfg.EnginePricing())
	if err != nil {
		return engine.Dashboard{}, err
	}

	advisor := engine.NewAdvisor(engine.Options{Rules: r.cfg.EngineRules(), Pricing: tariff})
	advisor.TimeOfUse = r.cfg.Pricing.TimeOfUse
	d, err := advisor.Dashboard(usage, prefs, habits, at, engine.ParseLanguage(r.cfg.Language))
	if err != nil {
		return engine.Dashboard{}, err
	}

	if err := r.publisher.Publish(d); err != nil {
		return d, err
	}
	return d, nil
}

// run refreshes every interval until ctx is done
func (r *refresher) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("refresh loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh loop stopped")
			return
		case <-ticker.C:
			d, err := r.refresh()
			if err != nil {
				r.logger.Error("refresh failed", zap.Error(err))
				continue
			}
			r.logger.Debug("refreshed",
				zap.Float64("total_kwh", d.Impact.TotalKWh),
				zap.Int("advice", len(d.Advice)),
				zap.Bool("high_ac", d.Habits.Has(engine.HabitHighAC)))
		}
	}
}
