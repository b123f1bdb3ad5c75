package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"crmhub/internal/analytics"
	"crmhub/internal/models"
	"crmhub/internal/repositories"
	"crmhub/internal/services"
	"crmhub/internal/tenancy"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const tenantFanoutLimit = 5

// Scheduler runs the periodic per-tenant maintenance work. Every task
// that touches tenant data re-fetches the tenant, re-checks that it is
// still operational, and binds a fresh scope before running.
type Scheduler struct {
	scheduler    gocron.Scheduler
	resolver     *tenancy.Resolver
	router       *tenancy.ScopeRouter
	tenantRepo   repositories.TenantRepository
	analyticsSvc analytics.Service
	usageSvc     services.UsageService
	leadSvc      services.LeadService
	authSvc      services.AuthService
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewScheduler(
	resolver *tenancy.Resolver,
	router *tenancy.ScopeRouter,
	tenantRepo repositories.TenantRepository,
	analyticsSvc analytics.Service,
	usageSvc services.UsageService,
	leadSvc services.LeadService,
	authSvc services.AuthService,
) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		scheduler:    scheduler,
		resolver:     resolver,
		router:       router,
		tenantRepo:   tenantRepo,
		analyticsSvc: analyticsSvc,
		usageSvc:     usageSvc,
		leadSvc:      leadSvc,
		authSvc:      authSvc,
		jobs:         make(map[string]gocron.Job),
	}
	s.registerJobs()
	return s, nil
}

func (s *Scheduler) Start() {
	log.Printf("Starting background job scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) registerJobs() {
	s.register("trial-expiry-sweep", gocron.DurationJob(1*time.Hour), s.sweepExpiredTrials)
	s.register("usage-rollup", gocron.DurationJob(6*time.Hour), s.rollupUsage)
	s.register("analytics-refresh", gocron.DurationJob(15*time.Minute), s.refreshAnalytics)
	s.register("lead-score-refresh", gocron.DurationJob(24*time.Hour), s.refreshLeadScores)
	s.register("token-cleanup", gocron.DurationJob(24*time.Hour), s.cleanupTokens)
	log.Printf("Registered %d background jobs", len(s.jobs))
}

func (s *Scheduler) register(name string, def gocron.JobDefinition, task func(context.Context) error) {
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(task, context.Background()),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create %s job: %v", name, err)
		return
	}
	s.mu.Lock()
	s.jobs[name] = job
	s.mu.Unlock()
}

// sweepExpiredTrials suspends trial tenants whose trial window has
// passed. After this runs the resolver stops serving them.
func (s *Scheduler) sweepExpiredTrials(ctx context.Context) error {
	tenants, err := s.tenantRepo.ListByStatus(ctx, models.TenantStatusTrial, 1000, 0)
	if err != nil {
		log.Printf("Failed to list trial tenants: %v", err)
		return err
	}

	now := time.Now()
	for _, tenant := range tenants {
		if !tenant.TrialExpired(now) {
			continue
		}
		if err := s.tenantRepo.Deactivate(ctx, tenant.ID); err != nil {
			log.Printf("Failed to suspend expired trial tenant %s: %v", tenant.ID, err)
			continue
		}
		log.Printf("Suspended tenant %s: trial expired %s", tenant.ID, tenant.TrialEndsAt.Format(time.RFC3339))
	}
	return nil
}

func (s *Scheduler) rollupUsage(ctx context.Context) error {
	return s.forEachOperationalTenant(ctx, func(ctx context.Context, tenantID uuid.UUID) error {
		return s.usageSvc.RollupTenant(ctx, tenantID)
	})
}

func (s *Scheduler) refreshAnalytics(ctx context.Context) error {
	return s.forEachOperationalTenant(ctx, func(ctx context.Context, tenantID uuid.UUID) error {
		_, err := s.analyticsSvc.Refresh(ctx, tenantID)
		return err
	})
}

func (s *Scheduler) refreshLeadScores(ctx context.Context) error {
	return s.forEachOperationalTenant(ctx, func(ctx context.Context, tenantID uuid.UUID) error {
		return s.leadSvc.RefreshScores(ctx, tenantID)
	})
}

func (s *Scheduler) cleanupTokens(ctx context.Context) error {
	deleted, err := s.authSvc.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Printf("Failed to clean up expired tokens: %v", err)
		return err
	}
	if deleted > 0 {
		log.Printf("Deleted %d expired refresh tokens", deleted)
	}
	return nil
}

// forEachOperationalTenant fans work out across tenants with bounded
// concurrency. Each tenant gets its own bound scope; a tenant that went
// suspended since the last run is skipped.
func (s *Scheduler) forEachOperationalTenant(ctx context.Context, fn func(context.Context, uuid.UUID) error) error {
	tenants, err := s.tenantRepo.List(ctx, 1000, 0)
	if err != nil {
		log.Printf("Failed to list tenants: %v", err)
		return err
	}

	semaphore := make(chan struct{}, tenantFanoutLimit)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		if err := s.resolver.CheckOperational(tenant); err != nil {
			continue
		}

		wg.Add(1)
		go func(tenant *models.Tenant) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			scope, err := s.router.Bind(ctx, tenant)
			if err != nil {
				log.Printf("Failed to bind scope for tenant %s: %v", tenant.ID, err)
				return
			}
			defer scope.Release(ctx)

			if err := fn(tenancy.WithScope(ctx, scope), tenant.ID); err != nil {
				log.Printf("Job failed for tenant %s: %v", tenant.ID, err)
			}
		}(tenant)
	}

	wg.Wait()
	return nil
}
