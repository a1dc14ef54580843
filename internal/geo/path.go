// Package geo summarizes the path a ghost travels.
package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// PathSummary describes a recorded ghost path. The game's Y axis is up, so
// the ground track lies in the X/Z plane.
type PathSummary struct {
	Points int        `json:"points"`
	Length float64    `json:"length"`
	Climb  float64    `json:"climb"`
	Min    core.Vec3f `json:"min"`
	Max    core.Vec3f `json:"max"`
	// WKT is the ground track as a LINESTRING Z (x, z, height).
	WKT string `json:"wkt,omitempty"`
	// BoundsWKT is the ground track's bounding box as a polygon.
	BoundsWKT string `json:"boundsWkt,omitempty"`
}

// ErrShortPath is returned by Track for paths with fewer than two points.
var ErrShortPath = errors.New("path needs at least two points")

// Track builds the ground track of points. A ghost that never leaves one
// spot on the ground has no track and gets a validation error.
func Track(points []core.Vec3f) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, ErrShortPath
	}
	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, float64(p.X), float64(p.Z), float64(p.Y))
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("creating ground track: %w", err)
	}
	return ls, nil
}

// Summarize computes the extent and length of a path.
func Summarize(points []core.Vec3f) PathSummary {
	s := PathSummary{Points: len(points)}
	if len(points) == 0 {
		return s
	}

	s.Min, s.Max = points[0], points[0]
	for i, p := range points {
		s.Min = core.Vec3f{X: min(s.Min.X, p.X), Y: min(s.Min.Y, p.Y), Z: min(s.Min.Z, p.Z)}
		s.Max = core.Vec3f{X: max(s.Max.X, p.X), Y: max(s.Max.Y, p.Y), Z: max(s.Max.Z, p.Z)}
		if i > 0 {
			s.Climb += math.Max(0, float64(p.Y-points[i-1].Y))
		}
	}

	ls, err := Track(points)
	if err != nil {
		return s
	}
	s.Length = ls.Length()
	s.WKT = ls.AsText()
	s.BoundsWKT = ls.Envelope().AsGeometry().AsText()
	return s
}
