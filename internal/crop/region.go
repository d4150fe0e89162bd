// Package crop models the crop region a sender profile draws over a work-order
// page, in either of its two historical representations: unit-square
// percentages or PDF points. The two forms never mix in a single OCR request.
package crop

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotConfigured marks the full-page sentinel region: the user never drew
	// a crop. Distinct from ErrInvalid so callers can prompt for configuration
	// instead of reporting a broken one.
	ErrNotConfigured = errors.New("crop region not configured")

	// ErrInvalid is the base error wrapped by all region validation failures.
	ErrInvalid = errors.New("invalid crop region")
)

const (
	// SentinelTolerance is how close a percent region must be to the full page
	// (x=y=0, w=h=1) to count as the not-configured default.
	SentinelTolerance = 0.01

	// MinPercentSide is the minimum width/height for a percent-form region.
	MinPercentSide = 0.01
	// MinPointSide is the minimum width/height in points for a points-form region.
	MinPointSide = 8.0

	// PadPercent and PadPoints are the per-side expansion applied on a weak-result
	// retry, clamped to page bounds.
	PadPercent = 0.015
	PadPoints  = 6.0
)

// Region is the tagged union of the two crop representations.
type Region interface {
	isRegion()
}

// Percent is a crop in unit-square coordinates, top-left origin.
type Percent struct {
	X, Y, W, H float64
}

// Points is a crop in PDF points, top-left origin, with the page size it was
// drawn against.
type Points struct {
	X, Y, W, H   float64
	PageW, PageH float64
}

func (Percent) isRegion() {}
func (Points) isRegion()  {}

// Rect is a crop resolved to raster pixels.
type Rect struct {
	X, Y, W, H int
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsSentinel reports whether p is the full-page default within SentinelTolerance.
func (p Percent) IsSentinel() bool {
	return math.Abs(p.X) <= SentinelTolerance &&
		math.Abs(p.Y) <= SentinelTolerance &&
		math.Abs(p.W-1) <= SentinelTolerance &&
		math.Abs(p.H-1) <= SentinelTolerance
}

// Validate checks a region for the invariants a usable crop must hold:
// finite fields, positive size, in-bounds placement and a minimum size.
// The full-page sentinel returns ErrNotConfigured rather than ErrInvalid.
func Validate(r Region) error {
	switch v := r.(type) {
	case Percent:
		if !finite(v.X, v.Y, v.W, v.H) {
			return fmt.Errorf("%w: non-finite field", ErrInvalid)
		}
		if v.IsSentinel() {
			return ErrNotConfigured
		}
		if v.W <= 0 || v.H <= 0 {
			return fmt.Errorf("%w: zero or negative size", ErrInvalid)
		}
		if v.X < 0 || v.Y < 0 || v.X+v.W > 1 || v.Y+v.H > 1 {
			return fmt.Errorf("%w: out of page bounds", ErrInvalid)
		}
		if v.W < MinPercentSide || v.H < MinPercentSide {
			return fmt.Errorf("%w: smaller than %.0f%% of page", ErrInvalid, MinPercentSide*100)
		}
		return nil
	case Points:
		if !finite(v.X, v.Y, v.W, v.H, v.PageW, v.PageH) {
			return fmt.Errorf("%w: non-finite field", ErrInvalid)
		}
		if v.PageW <= 0 || v.PageH <= 0 {
			return fmt.Errorf("%w: missing page size", ErrInvalid)
		}
		if v.W <= 0 || v.H <= 0 {
			return fmt.Errorf("%w: zero or negative size", ErrInvalid)
		}
		if v.X < 0 || v.Y < 0 || v.X+v.W > v.PageW || v.Y+v.H > v.PageH {
			return fmt.Errorf("%w: out of page bounds", ErrInvalid)
		}
		if v.W < MinPointSide || v.H < MinPointSide {
			return fmt.Errorf("%w: smaller than %.0fpt", ErrInvalid, MinPointSide)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown region form %T", ErrInvalid, r)
	}
}
