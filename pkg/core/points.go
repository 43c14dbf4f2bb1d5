// Package core provides the fundamental data structures and logic for the
// nhood enrichment engine.
//
// This file defines the PointSet, the immutable input of one analysis run:
// 2D coordinates, one categorical label per point, and the dense label
// registry used for counting. A PointSet is validated once on construction
// and never mutated afterward.
package core

import (
	"errors"
	"fmt"
	"math"
)

// --- Errors ---

var (
	// ErrTooFewPoints is returned when the input holds fewer than 2 points.
	ErrTooFewPoints = errors.New("point set must contain at least 2 points")
	// ErrBadCoordinate is returned when a coordinate is NaN or infinite.
	ErrBadCoordinate = errors.New("coordinates must be finite")
	// ErrLabelMismatch is returned when the label slice length differs from
	// the coordinate slice length.
	ErrLabelMismatch = errors.New("exactly one label per point is required")
)

// --- Point and labels ---

// Point is a single 2D coordinate. Point identity is positional: the i-th
// point of a PointSet has identity i for the whole analysis.
type Point struct {
	X float64
	Y float64
}

// LabelCode is the dense integer code assigned to a label. Codes are
// assigned in order of first appearance in the input, starting at 0.
type LabelCode int32

// PointSet bundles the coordinates, the per-point label codes and the
// label registry for one analysis run.
type PointSet struct {
	points []Point
	codes  []LabelCode
	names  []string // code -> original label name
}

// NewPointSet validates the raw input and builds the label registry.
//
// It rejects empty or single-point inputs, non-finite coordinates and a
// label slice whose length does not match the point slice. These are the
// fatal input errors of the pipeline: nothing is computed past them.
func NewPointSet(points []Point, labels []string) (*PointSet, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewPoints, len(points))
	}
	if len(labels) != len(points) {
		return nil, fmt.Errorf("%w (%d points, %d labels)", ErrLabelMismatch, len(points), len(labels))
	}

	for i, p := range points {
		if !isFinite(p.X) || !isFinite(p.Y) {
			return nil, fmt.Errorf("%w: point %d is (%v, %v)", ErrBadCoordinate, i, p.X, p.Y)
		}
	}

	// Dense codes in order of first appearance, so code assignment does not
	// depend on map iteration order.
	byName := make(map[string]LabelCode)
	var names []string
	codes := make([]LabelCode, len(labels))
	for i, name := range labels {
		code, ok := byName[name]
		if !ok {
			code = LabelCode(len(names))
			byName[name] = code
			names = append(names, name)
		}
		codes[i] = code
	}

	ps := &PointSet{
		points: append([]Point(nil), points...),
		codes:  codes,
		names:  names,
	}
	return ps, nil
}

// Len returns the number of points.
func (ps *PointSet) Len() int { return len(ps.points) }

// Labels returns the number of distinct labels.
func (ps *PointSet) Labels() int { return len(ps.names) }

// Point returns the coordinate of point i.
func (ps *PointSet) Point(i int) Point { return ps.points[i] }

// Code returns the label code of point i.
func (ps *PointSet) Code(i int) LabelCode { return ps.codes[i] }

// LabelName returns the original label string for a code.
func (ps *PointSet) LabelName(code LabelCode) string { return ps.names[code] }

// Codes returns a copy of the per-point label codes. The copy is what
// permutation trials shuffle; the PointSet itself stays immutable.
func (ps *PointSet) Codes() []LabelCode {
	return append([]LabelCode(nil), ps.codes...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
