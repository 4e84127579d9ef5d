package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// reconcileTimeout bounds a single pass.
const reconcileTimeout = 5 * time.Minute

// Reconciler periodically rewrites stored member statuses that no longer
// match the dates they were derived from.
type Reconciler struct {
	members MemberService
	sched   *cron.Cron

	mu   sync.Mutex
	last ReconcileResult
}

// NewReconciler schedules MemberService.Reconcile. The schedule accepts
// standard cron expressions with an optional seconds field and descriptors
// such as "@every 1h".
func NewReconciler(members MemberService, schedule string, loc *time.Location) (*Reconciler, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Reconciler{
		members: members,
		sched:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
	}
	if _, err := r.sched.AddFunc(schedule, r.run); err != nil {
		return nil, errors.Wrapf(err, "invalid reconcile schedule %q", schedule)
	}
	return r, nil
}

// Start begins running the schedule in its own goroutine.
func (r *Reconciler) Start() {
	r.sched.Start()
}

// Stop halts the schedule and waits for a running pass to finish or ctx to
// expire.
func (r *Reconciler) Stop(ctx context.Context) {
	done := r.sched.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		zap.S().Warn("reconciler stop timed out")
	}
}

// RunOnce runs a pass immediately and records its result.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileResult, error) {
	result, err := r.members.Reconcile(ctx)
	r.mu.Lock()
	r.last = result
	r.mu.Unlock()
	if err != nil {
		return result, err
	}
	if result.Drifted > 0 {
		zap.S().Infow("member statuses reconciled",
			"scanned", result.Scanned,
			"drifted", result.Drifted,
			"fixed", result.Fixed,
			"failed", result.Failed)
	}
	return result, nil
}

// Last returns the result of the most recent pass.
func (r *Reconciler) Last() ReconcileResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reconciler) run() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		zap.S().Errorw("member reconcile failed", "error", err)
	}
}
