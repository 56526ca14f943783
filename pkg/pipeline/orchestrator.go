// Package pipeline schedules per-file classification and processing over a
// bounded worker pool. Failures stay local to the file that caused them:
// the caller always gets one result per input descriptor, in input order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/duynguyendang/secdex/pkg/classify"
	"github.com/duynguyendang/secdex/pkg/process"
)

// ErrInvalidConcurrency is returned when the configured worker count is not
// positive. It is the only way ProcessBatch itself fails.
var ErrInvalidConcurrency = errors.New("concurrency limit must be positive")

// itemState tracks one descriptor through the batch.
type itemState int

const (
	stateQueued itemState = iota
	stateRunning
	stateCompleted
	stateFailed
)

type batchItem struct {
	idx   int
	fd    classify.FileDescriptor
	tier  classify.Tier
	state itemState
}

// Orchestrator runs batches of file descriptors through classify-then-
// process, never exceeding the configured concurrency.
type Orchestrator struct {
	classifier *classify.Classifier
	suite      *process.Suite
	reader     FileReader
	cfg        Config
	log        *zap.SugaredLogger
}

// New builds an orchestrator. log may be nil.
func New(cfg Config, classifier *classify.Classifier, suite *process.Suite, reader FileReader, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if reader == nil {
		reader = OSReader{}
	}
	return &Orchestrator{
		classifier: classifier,
		suite:      suite,
		reader:     reader,
		cfg:        cfg,
		log:        log,
	}
}

// ProcessBatch processes every descriptor and returns one result per input,
// in input order regardless of completion order. Annotated items are
// scheduled before source code, source code before generic; ties preserve
// input order. On cancellation, running items finish while queued items
// come back failed with a cancellation record.
func (o *Orchestrator) ProcessBatch(ctx context.Context, fds []classify.FileDescriptor) ([]*process.Result, error) {
	if o.cfg.Concurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}

	items := make([]*batchItem, len(fds))
	for i, fd := range fds {
		items[i] = &batchItem{idx: i, fd: fd, tier: o.classifier.Classify(fd)}
	}

	queue := make([]*batchItem, len(items))
	copy(queue, items)
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].tier < queue[j].tier
	})

	// One slot per input index, written exactly once by whichever worker
	// completes the item.
	results := make([]*process.Result, len(fds))

	jobs := make(chan *batchItem)
	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				if ctx.Err() != nil {
					it.state = stateFailed
					results[it.idx] = cancelledResult(it.tier)
					continue
				}
				it.state = stateRunning
				res := o.runOne(ctx, it)
				results[it.idx] = res
				if res.Failed() {
					it.state = stateFailed
				} else {
					it.state = stateCompleted
				}
			}
		}()
	}

feed:
	for i, it := range queue {
		select {
		case jobs <- it:
		case <-ctx.Done():
			for _, dropped := range queue[i:] {
				dropped.state = stateFailed
				results[dropped.idx] = cancelledResult(dropped.tier)
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	completed, failed := 0, 0
	for _, it := range items {
		if it.state == stateFailed {
			failed++
		} else {
			completed++
		}
	}
	o.log.Infow("batch finished", "total", len(items), "completed", completed, "failed", failed)

	return results, nil
}

// runOne executes a single file's read-and-process sequence. The per-file
// timeout applies even after batch cancellation so running items can finish
// cleanly; an unexpected panic becomes a synthetic failed result instead of
// taking down the batch.
func (o *Orchestrator) runOne(ctx context.Context, it *batchItem) (res *process.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorw("worker panic", "path", it.fd.Path, "panic", r)
			res = faultResult(it.tier, fmt.Sprintf("worker panic: %v", r))
		}
	}()

	fileCtx := context.WithoutCancel(ctx)
	if o.cfg.PerFileTimeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(fileCtx, o.cfg.PerFileTimeout)
		defer cancel()
	}

	raw, err := o.reader.Read(fileCtx, it.fd.Path)
	if err != nil {
		o.log.Warnw("file read failed", "path", it.fd.Path, "error", err)
		return &process.Result{
			Metadata: process.Metadata{Tier: it.tier},
			Errors: []process.ErrorRecord{{
				Stage:       process.StageRead,
				Message:     fmt.Sprintf("read %s: %v", it.fd.Path, err),
				Recoverable: false,
			}},
		}
	}

	res = o.suite.ForTier(it.tier).Process(fileCtx, it.fd, raw)
	if res == nil {
		res = faultResult(it.tier, "processor returned no result")
	}
	return res
}

// faultResult synthesizes the empty failed result used for I/O faults,
// timeouts, and worker panics.
func faultResult(tier classify.Tier, msg string) *process.Result {
	return &process.Result{
		Metadata: process.Metadata{Tier: tier},
		Errors: []process.ErrorRecord{{
			Stage:       process.StageWorker,
			Message:     msg,
			Recoverable: false,
		}},
	}
}

func cancelledResult(tier classify.Tier) *process.Result {
	return &process.Result{
		Metadata: process.Metadata{Tier: tier},
		Errors: []process.ErrorRecord{{
			Stage:       process.StageWorker,
			Message:     "cancelled before processing started",
			Recoverable: false,
		}},
	}
}
