package utils

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ProgressReconciler is satisfied by *learning.Service.
type ProgressReconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// InitializeProgressScheduler runs the enrollment progress reconciler on spec
// (standard cron syntax or descriptors such as "@every 1h").
func InitializeProgressScheduler(spec string, r ProgressReconciler) (*cron.Cron, error) {
	log.Println("[PROGRESS-SCHEDULER] Initializing progress reconciler...")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { RunProgressReconcile(r) }); err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[PROGRESS-SCHEDULER] Progress reconciler started - schedule %q", spec)
	return c, nil
}

// RunProgressReconcile repairs enrollments whose stored progress drifted from
// their lesson rows.
func RunProgressReconcile(r ProgressReconciler) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	repaired, err := r.ReconcileAll(ctx)
	if err != nil {
		log.Printf("[PROGRESS-SCHEDULER] Reconcile stopped after %d repairs: %v", repaired, err)
		return repaired
	}
	log.Printf("[PROGRESS-SCHEDULER] Reconciled enrollments in %s, %d repaired", time.Since(start).Round(time.Millisecond), repaired)
	return repaired
}
