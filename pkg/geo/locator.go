// Package geo supplies the device position reported on the live channel.
package geo

import (
	"context"
	"errors"
)

// ErrLocationUnavailable is returned when the device has no position to
// report, e.g. location access is disabled.
var ErrLocationUnavailable = errors.New("location unavailable")

type Position struct {
	Latitude  float64
	Longitude float64
}

// Locator looks up the current device position. Lookups may block for an
// arbitrary time.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Static reports a fixed position.
type Static Position

func (s Static) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position(s), nil
}

// Unavailable never has a position.
type Unavailable struct{}

func (Unavailable) CurrentPosition(context.Context) (Position, error) {
	return Position{}, ErrLocationUnavailable
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (Position, error) {
	return f(ctx)
}
