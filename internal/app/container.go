package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/config"
	"github.com/acme/voice-campaign-manager/internal/dialer"
	"github.com/acme/voice-campaign-manager/internal/infra/db"
	"github.com/acme/voice-campaign-manager/internal/infra/redis"
	"github.com/acme/voice-campaign-manager/internal/queue"
	"github.com/acme/voice-campaign-manager/internal/repository"
	pgrepo "github.com/acme/voice-campaign-manager/internal/repository/postgres"
	scyllarepo "github.com/acme/voice-campaign-manager/internal/repository/scylla"
	"github.com/acme/voice-campaign-manager/internal/runlock"
	"github.com/acme/voice-campaign-manager/internal/runner"
	"github.com/acme/voice-campaign-manager/internal/schedule"
	"github.com/acme/voice-campaign-manager/internal/scheduler"
	campaignsvc "github.com/acme/voice-campaign-manager/internal/service/campaign"
	reportsvc "github.com/acme/voice-campaign-manager/internal/service/report"
	"github.com/acme/voice-campaign-manager/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Postgres *db.Postgres
	Scylla   *db.Scylla
	Redis    *redis.Client
	Kafka    *queue.Kafka

	// lazily initialised components
	components struct {
		once         sync.Once
		repositories *repositories
		services     *services
		triggers     *schedule.TimerRegistry
	}
}

type repositories struct {
	Campaign repository.CampaignRepository
	Contact  repository.ContactRepository
	Reports  repository.CallReportStore
}

type services struct {
	Campaign        *campaignsvc.Service
	Report          *reportsvc.Service
	Scheduler       *scheduler.Scheduler
	Runner          *runner.Runner
	ReportPublisher *queue.ReportPublisher
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}

	scylla, err := db.NewScylla(cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("bootstrap scylla: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}

	kafka, err := queue.NewKafka(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("bootstrap kafka: %w", err)
	}

	container := &Container{
		Config:   cfg,
		Logger:   lg,
		Postgres: pg,
		Scylla:   scylla,
		Redis:    redisClient,
		Kafka:    kafka,
	}

	return container, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		repos := &repositories{
			Campaign: pgrepo.NewCampaignRepository(c.Postgres.DB()),
			Contact:  pgrepo.NewContactRepository(c.Postgres.DB()),
			Reports:  scyllarepo.NewReportStore(c.Scylla.Session()),
		}

		lock := runlock.NewLock(c.Redis.Inner(), c.Config.RunLock.KeyPrefix, c.Config.RunLock.TTL)
		pacer := runner.NewFixedPacer(c.Config.Pacing)
		voice := dialer.NewClient(c.Config.Provider)

		run := runner.New(repos.Campaign, repos.Contact, voice, pacer, lockAdapter{lock}, c.Logger)

		triggers := schedule.NewTimerRegistry(c.Logger)

		svcs := &services{
			Campaign:        campaignsvc.NewService(repos.Campaign, repos.Contact),
			Report:          reportsvc.NewService(repos.Reports, repos.Campaign),
			Scheduler:       scheduler.New(repos.Campaign, triggers, run, c.Logger),
			Runner:          run,
			ReportPublisher: queue.NewReportPublisher(c.Kafka, c.Config.Kafka.ReportTopic),
		}

		c.components.repositories = repos
		c.components.services = svcs
		c.components.triggers = triggers
	})
}

// lockAdapter narrows the concrete lease type to the runner's interface.
type lockAdapter struct {
	lock *runlock.Lock
}

func (a lockAdapter) Acquire(ctx context.Context, campaignID uuid.UUID) (runner.Lease, bool, error) {
	lease, ok, err := a.lock.Acquire(ctx, campaignID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return lease, true, nil
}

// Repositories exposes initialized repositories.
func (c *Container) Repositories() *repositories {
	c.initComponents()
	return c.components.repositories
}

// Services exposes initialized services.
func (c *Container) Services() *services {
	c.initComponents()
	return c.components.services
}

// HealthCheck pings each backing store and reports the failures.
func (c *Container) HealthCheck(ctx context.Context) map[string]string {
	healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	errs := make(map[string]string)

	if err := c.Postgres.DB().PingContext(healthCtx); err != nil {
		errs["postgres"] = err.Error()
	}
	if err := c.Redis.Inner().Ping(healthCtx).Err(); err != nil {
		errs["redis"] = err.Error()
	}
	if err := c.Scylla.Session().Query("SELECT now() FROM system.local").WithContext(healthCtx).Exec(); err != nil {
		errs["scylla"] = err.Error()
	}

	return errs
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.components.triggers != nil {
		c.components.triggers.Close()
	}
	if c.components.services != nil && c.components.services.ReportPublisher != nil {
		if err := c.components.services.ReportPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("report publisher close: %w", err))
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Scylla != nil {
		if err := c.Scylla.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scylla close: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// EnsureTopics ensures required Kafka topics exist.
func (c *Container) EnsureTopics(ctx context.Context) error {
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.ReportTopic}, 12, 1)
}
