package scheduler

import (
	"context"
	"time"

	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	sweepSpec      = "@every 1m"
	refreshTimeout = 30 * time.Second
)

// CatalogRefresher reloads the shared product list.
type CatalogRefresher interface {
	FetchProducts(ctx context.Context) error
}

// VisitorSweeper drops idle visitor sessions.
type VisitorSweeper interface {
	Sweep() int
}

// StorefrontScheduler runs the periodic gateway jobs: the catalog refresh
// and the idle visitor sweep.
type StorefrontScheduler struct {
	cron        *cron.Cron
	catalog     CatalogRefresher
	visitors    VisitorSweeper
	refreshSpec string
	log         *logger.Logger
}

// NewStorefrontScheduler creates the scheduler. An empty refreshSpec turns
// the catalog refresh off; a nil sweeper turns the sweep off.
func NewStorefrontScheduler(catalog CatalogRefresher, visitors VisitorSweeper, refreshSpec string, log *logger.Logger) *StorefrontScheduler {
	if log == nil {
		log = logger.Get()
	}
	return &StorefrontScheduler{
		cron:        cron.New(),
		catalog:     catalog,
		visitors:    visitors,
		refreshSpec: refreshSpec,
		log:         log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *StorefrontScheduler) Start() error {
	if s.refreshSpec != "" && s.catalog != nil {
		if _, err := s.cron.AddFunc(s.refreshSpec, s.RefreshCatalog); err != nil {
			s.log.Error("Failed to add cron job for catalog refresh", err, logger.Fields{
				"spec": s.refreshSpec,
			})
			return err
		}
	}

	if s.visitors != nil {
		if _, err := s.cron.AddFunc(sweepSpec, s.SweepVisitors); err != nil {
			s.log.Error("Failed to add cron job for visitor sweep", err)
			return err
		}
	}

	s.cron.Start()
	s.log.Info("Storefront scheduler started", logger.Fields{
		"catalog_refresh": s.refreshSpec,
		"jobs":            len(s.cron.Entries()),
	})
	return nil
}

// RefreshCatalog reloads the catalog once.
func (s *StorefrontScheduler) RefreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	s.log.Debug("Starting scheduled catalog refresh")
	if err := s.catalog.FetchProducts(ctx); err != nil {
		s.log.Error("Failed to refresh catalog from scheduler", err)
		return
	}
	s.log.Info("Catalog refreshed from scheduler")
}

// SweepVisitors drops idle visitors once.
func (s *StorefrontScheduler) SweepVisitors() {
	if dropped := s.visitors.Sweep(); dropped > 0 {
		s.log.Info("Idle visitors dropped", logger.Fields{"count": dropped})
	}
}

// Stop waits for running jobs and stops the cron loop.
func (s *StorefrontScheduler) Stop() {
	s.log.Info("Stopping storefront scheduler...")
	<-s.cron.Stop().Done()
	s.log.Info("Storefront scheduler stopped")
}
