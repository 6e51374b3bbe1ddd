package background

import (
	"context"
	"log"
	"sync"
	"time"

	"forgestudio/internal/jobs"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the periodic maintenance jobs.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	reconciler *jobs.QuotaReconciler
	jobJobs    map[string]gocron.Job
	mu         sync.RWMutex
}

func NewJobScheduler(reconciler *jobs.QuotaReconciler) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		reconciler: reconciler,
		jobJobs:    make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Quota reconciliation - every 15 minutes
	quotaJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.reconciler.Run, context.Background()),
		gocron.WithName("quota-reconciliation"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create quota reconciliation job: %v", err)
	} else {
		js.mu.Lock()
		js.jobJobs["quota-reconciliation"] = quotaJob
		js.mu.Unlock()
	}
}
