package tracer

import (
	"context"

	"github.com/achilleasa/raycore/geometry"
)

// The query performed for every ray in a frame.
type QueryType uint8

const (
	ClosestHitQuery QueryType = iota
	AnyHitQuery
)

// The Target interface is implemented by geometry containers that can
// answer ray queries. Implementations must be safe for concurrent use.
type Target interface {
	ClosestHit(ray *geometry.Ray) geometry.HitRecord
	AnyHit(ray *geometry.Ray) bool
}

// A frame of rays stored in row-major order together with the query
// results.
type Frame struct {
	Width  uint32
	Height uint32
	Query  QueryType

	Rays []geometry.Ray

	// Closest hit results (ClosestHitQuery).
	Hits []geometry.HitRecord

	// Any hit results (AnyHitQuery).
	Occluded []bool
}

// Create a frame with room for width*height rays.
func NewFrame(width, height uint32, query QueryType) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Query:  query,
		Rays:   make([]geometry.Ray, width*height),
	}
	switch query {
	case AnyHitQuery:
		f.Occluded = make([]bool, width*height)
	default:
		f.Hits = make([]geometry.HitRecord, width*height)
	}
	return f
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32
}

// Tracer statistics.
type Stats struct {
	// The traced block height
	BlockH uint32

	// The time for tracing this block (in nanoseconds)
	BlockTime int64

	// Rays traced and rays that hit something.
	Rays uint64
	Hits uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracers computation speed estimate compared to a
	// baseline implementation.
	SpeedEstimate() float32

	// Run the frame query for all rays in the requested block.
	Trace(ctx context.Context, target Target, frame *Frame, req BlockRequest) error

	// Retrieve last block statistics.
	Stats() *Stats
}
