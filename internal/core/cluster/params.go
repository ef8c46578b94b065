// Package cluster implements the incremental semantic clustering engine:
// candidate selection, anchor-based greedy grouping under a temporal bound,
// and cluster summary synthesis.
package cluster

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParameters is returned when clustering parameters are rejected
// at construction time.
var ErrInvalidParameters = errors.New("invalid clustering parameters")

// Params are the knobs of a clustering run. WindowDays doubles as the
// recency cutoff for incremental candidate selection and as the maximum
// time span of a cluster.
type Params struct {
	Threshold  float64
	WindowDays int
	MinSize    int
	MaxSize    int
}

// DefaultParams returns the stock parameters.
func DefaultParams() Params {
	return Params{
		Threshold:  0.85,
		WindowDays: 30,
		MinSize:    2,
		MaxSize:    20,
	}
}

func (p Params) Validate() error {
	if p.Threshold <= 0 || p.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v not in (0, 1]", ErrInvalidParameters, p.Threshold)
	}
	if p.WindowDays <= 0 {
		return fmt.Errorf("%w: window %d days", ErrInvalidParameters, p.WindowDays)
	}
	if p.MinSize < 1 || p.MaxSize < p.MinSize {
		return fmt.Errorf("%w: size bounds [%d, %d]", ErrInvalidParameters, p.MinSize, p.MaxSize)
	}
	return nil
}

// Window is the temporal window as a duration.
func (p Params) Window() time.Duration {
	return time.Duration(p.WindowDays) * 24 * time.Hour
}
