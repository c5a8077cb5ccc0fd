package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/investor-scout/internal/config"
	"github.com/sells-group/investor-scout/internal/model"
	"github.com/sells-group/investor-scout/internal/resilience"
	"github.com/sells-group/investor-scout/internal/sink"
)

// ErrBatchActive is returned when a batch is started while another is still
// running. The process hosts at most one batch at a time.
var ErrBatchActive = eris.New("pipeline: a batch is already running")

// EmailResolver resolves a single investor name to email addresses.
type EmailResolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
}

// ProgressFunc is called before each investor is processed. index is 1-based.
type ProgressFunc func(index int, name string)

// Runner processes batches of investor names sequentially. Results are
// checkpointed to the sink during the run so a crash or stop loses at most
// the investors since the last checkpoint.
type Runner struct {
	resolver EmailResolver
	status   *StatusTracker
	cfg      config.BatchConfig

	active atomic.Bool
}

func NewRunner(resolver EmailResolver, status *StatusTracker, cfg config.BatchConfig) *Runner {
	return &Runner{resolver: resolver, status: status, cfg: cfg}
}

// Status exposes the tracker backing this runner.
func (r *Runner) Status() *StatusTracker { return r.status }

// Run processes names synchronously and returns the rows written to the sink.
// A stop via ctx is a normal outcome, not an error: the rows completed before
// the stop are saved and returned.
func (r *Runner) Run(ctx context.Context, names []string, snk sink.ResultSink, progress ProgressFunc) ([]model.InvestorResult, error) {
	if !r.active.CompareAndSwap(false, true) {
		return nil, ErrBatchActive
	}
	defer r.active.Store(false)

	return r.run(ctx, names, snk, progress)
}

// Batch is a handle on a batch launched with Start.
type Batch struct {
	cancel  context.CancelFunc
	done    chan struct{}
	results []model.InvestorResult
	err     error
}

// Stop requests the batch finish after the current investor. It does not
// wait; use Done or Results for that.
func (b *Batch) Stop() { b.cancel() }

// Done closes once the batch has finished and its results are final.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Results blocks until the batch finishes.
func (b *Batch) Results() ([]model.InvestorResult, error) {
	<-b.done
	return b.results, b.err
}

// Start launches a batch in the background and returns a handle for stopping
// and awaiting it.
func (r *Runner) Start(ctx context.Context, names []string, snk sink.ResultSink, progress ProgressFunc) (*Batch, error) {
	if !r.active.CompareAndSwap(false, true) {
		return nil, ErrBatchActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	b := &Batch{cancel: cancel, done: make(chan struct{})}

	go func() {
		// The active slot must free before done closes so a caller waiting
		// on Done can start the next batch immediately.
		defer close(b.done)
		defer r.active.Store(false)
		defer cancel()
		b.results, b.err = r.run(runCtx, names, snk, progress)
	}()

	return b, nil
}

func (r *Runner) run(ctx context.Context, names []string, snk sink.ResultSink, progress ProgressFunc) ([]model.InvestorResult, error) {
	total := len(names)
	every := r.cfg.CheckpointEvery
	if every <= 0 {
		every = 10
	}

	r.status.Start(total, snk.Dest())
	log := zap.L().With(zap.Int("total", total), zap.String("results", snk.Dest()))
	log.Info("batch: starting")

	results := make([]model.InvestorResult, 0, total)
	stopped := false

	for i, name := range names {
		if ctx.Err() != nil {
			stopped = true
			break
		}

		index := i + 1
		r.status.SetCurrent(index, name)
		if progress != nil {
			progress(index, name)
		}

		typ := ClassifyType(name)
		emails, err := r.resolver.Resolve(ctx, name)
		switch {
		case err != nil && ctx.Err() != nil:
			// Stopped mid-investor; the partial row is discarded.
			stopped = true
		case err != nil:
			log.Warn("batch: investor failed", zap.String("investor", name), zap.Error(err))
			r.status.RecordError(name + ": " + err.Error())
			results = append(results, model.NewErrorResult(name, typ, err.Error(), time.Now()))
		default:
			results = append(results, model.NewSuccessResult(name, typ, emails, time.Now()))
			if len(emails) > 0 {
				r.status.AddInvestorWithEmails()
			}
		}
		if stopped {
			break
		}

		if index%every == 0 || index == total {
			if err := snk.Write(ctx, results); err != nil {
				log.Error("batch: checkpoint failed", zap.Error(err))
				r.status.Fail(err.Error())
				return results, eris.Wrap(err, "pipeline: write checkpoint")
			}
			log.Info("batch: checkpoint saved", zap.Int("rows", len(results)))
		}

		if index < total {
			if err := resilience.Sleep(ctx, r.cfg.InvestorDelay.Pick()); err != nil {
				stopped = true
				break
			}
		}
	}

	if stopped {
		// The parent context is already cancelled, so the save of completed
		// rows gets a detached context.
		if err := snk.Write(context.WithoutCancel(ctx), results); err != nil {
			log.Error("batch: final save failed", zap.Error(err))
			r.status.Fail(err.Error())
			return results, eris.Wrap(err, "pipeline: write final results")
		}
		log.Info("batch: stopped", zap.Int("processed", len(results)))
		r.status.Complete()
		return results, nil
	}

	r.status.Complete()
	log.Info("batch: complete",
		zap.Int("processed", len(results)),
		zap.Int("with_emails", model.InvestorsWithEmails(results)))
	return results, nil
}
