package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/lending-core/internal/bootstrap"
	"github.com/segyhp/lending-core/internal/config"
	"github.com/segyhp/lending-core/internal/logger"
	"github.com/segyhp/lending-core/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single job run so a stuck database cannot pile up runs.
const jobTimeout = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)
	log.Info("Starting lending scheduler...")

	if err := bootstrap.RequireSharedStorage(cfg, "scheduler"); err != nil {
		log.WithError(err).Fatal("Unsupported storage driver")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	defer storage.Close()

	publisher, closer, err := bootstrap.OpenPublisher(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize audit publisher")
	}
	defer closer.Close()

	schedules := service.NewScheduleService(storage.UnitOfWork, service.SystemClock{}, publisher, log)

	// Initialize cron scheduler
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, schedules, log); err != nil {
		log.WithError(err).Fatal("Failed to schedule jobs")
	}

	// Start the scheduler
	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, schedules *service.ScheduleService, log *logrus.Logger) error {
	// Lay out installments for newly approved loans
	if _, err := c.AddFunc(cfg.Scheduler.ScheduleCron, func() {
		runJob(log, "generate_schedules", schedules.GenerateSchedules)
	}); err != nil {
		return err
	}

	// Flag installments that passed their due date
	if _, err := c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		runJob(log, "mark_overdue", schedules.MarkOverdue)
	}); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"schedule_cron": cfg.Scheduler.ScheduleCron,
		"overdue_cron":  cfg.Scheduler.OverdueCron,
		"timezone":      cfg.Scheduler.Timezone,
	}).Info("Cron jobs scheduled successfully")
	return nil
}

func runJob(log *logrus.Logger, name string, job func(ctx context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	entry := log.WithField("job", name)
	entry.Info("Running job")

	start := time.Now()
	n, err := job(ctx)
	entry = entry.WithFields(logrus.Fields{
		"affected": n,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("Job failed")
		return
	}
	entry.Info("Job completed")
}
