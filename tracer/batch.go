package tracer

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/raycore/log"
	"golang.org/x/sync/errgroup"
)

// A Batch runs the queries of a frame across a pool of tracers. Each
// tracer receives a block of rows whose height is picked by the scheduler.
type Batch struct {
	logger    log.Logger
	tracers   []Tracer
	scheduler BlockScheduler
	stats     FrameStats
}

// Create a batch with workers CPU tracers.
func NewBatch(workers int, scheduler BlockScheduler) (*Batch, error) {
	if workers < 1 {
		return nil, ErrNoTracers
	}

	tracers := make([]Tracer, workers)
	for i := range tracers {
		tracers[i] = NewCPUTracer(fmt.Sprintf("cpu-%d", i))
	}
	return NewBatchWithTracers(tracers, scheduler)
}

// Create a batch using an existing set of tracers.
func NewBatchWithTracers(tracers []Tracer, scheduler BlockScheduler) (*Batch, error) {
	if len(tracers) == 0 {
		return nil, ErrNoTracers
	}
	if scheduler == nil {
		scheduler = PerfectScheduler()
	}

	return &Batch{
		logger:    log.New("batch"),
		tracers:   tracers,
		scheduler: scheduler,
	}, nil
}

// Run the frame queries against target. It blocks until all tracers are
// done or one of them fails; a failure cancels the remaining tracers.
func (b *Batch) Run(ctx context.Context, target Target, frame *Frame) error {
	if target == nil {
		return ErrTargetMissing
	}
	if frame.Height == 0 || frame.Width == 0 {
		b.stats = FrameStats{}
		return nil
	}

	// Never hand out more blocks than rows
	tracers := b.tracers
	if uint32(len(tracers)) > frame.Height {
		tracers = tracers[:frame.Height]
	}

	blockAssignment := b.scheduler.Schedule(tracers, frame.Height)

	start := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	var blockY uint32
	for idx, tr := range tracers {
		req := BlockRequest{BlockY: blockY, BlockH: blockAssignment[idx]}
		blockY += req.BlockH
		if req.BlockH == 0 {
			continue
		}

		tr := tr
		group.Go(func() error {
			return tr.Trace(groupCtx, target, frame, req)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	b.collectStats(tracers, blockAssignment, frame, time.Since(start))
	b.logger.Debugf("traced %dx%d frame in %s (%d hits)", frame.Width, frame.Height, b.stats.TraceTime, b.stats.Hits)
	return nil
}

func (b *Batch) collectStats(tracers []Tracer, blockAssignment []uint32, frame *Frame, elapsed time.Duration) {
	b.stats = FrameStats{
		Tracers:   make([]TracerStat, len(tracers)),
		TraceTime: elapsed,
	}
	for idx, tr := range tracers {
		if blockAssignment[idx] == 0 {
			b.stats.Tracers[idx] = TracerStat{Id: tr.Id()}
			continue
		}

		stats := tr.Stats()
		b.stats.Tracers[idx] = TracerStat{
			Id:           tr.Id(),
			BlockH:       stats.BlockH,
			FramePercent: 100.0 * float32(stats.BlockH) / float32(frame.Height),
			TraceTime:    time.Duration(stats.BlockTime),
		}
		b.stats.Rays += stats.Rays
		b.stats.Hits += stats.Hits
	}
}

// Get statistics for the last frame.
func (b *Batch) Stats() FrameStats {
	return b.stats
}
