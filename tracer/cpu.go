package tracer

import (
	"context"
	"fmt"
	"time"
)

// A tracer that runs queries on the calling goroutine.
type cpuTracer struct {
	id    string
	stats Stats
}

// Create a new CPU tracer.
func NewCPUTracer(id string) Tracer {
	return &cpuTracer{id: id}
}

func (tr *cpuTracer) Id() string {
	return tr.id
}

// All CPU tracers run at the baseline speed.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1.0
}

func (tr *cpuTracer) Stats() *Stats {
	return &tr.stats
}

func (tr *cpuTracer) Trace(ctx context.Context, target Target, frame *Frame, req BlockRequest) error {
	if req.BlockY+req.BlockH > frame.Height {
		return fmt.Errorf("tracer %s: block [%d, %d) exceeds frame height %d", tr.id, req.BlockY, req.BlockY+req.BlockH, frame.Height)
	}

	start := time.Now()
	var hits uint64
	for y := req.BlockY; y < req.BlockY+req.BlockH; y++ {
		if ctx.Err() != nil {
			return ErrInterrupted
		}

		rowStart := y * frame.Width
		for i := rowStart; i < rowStart+frame.Width; i++ {
			switch frame.Query {
			case AnyHitQuery:
				frame.Occluded[i] = target.AnyHit(&frame.Rays[i])
				if frame.Occluded[i] {
					hits++
				}
			default:
				frame.Hits[i] = target.ClosestHit(&frame.Rays[i])
				if frame.Hits[i].DidHit {
					hits++
				}
			}
		}
	}

	tr.stats = Stats{
		BlockH:    req.BlockH,
		BlockTime: time.Since(start).Nanoseconds(),
		Rays:      uint64(req.BlockH) * uint64(frame.Width),
		Hits:      hits,
	}
	return nil
}
