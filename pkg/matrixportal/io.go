package matrixportal

import (
	"context"
	"time"

	"github.com/fkcurrie/matrixportal-golang/internal/network"
)

// GetLocalTime returns the current time at location from the Adafruit IO
// time service
func (p *MatrixPortal) GetLocalTime(ctx context.Context, location string) (time.Time, error) {
	return p.Network.GetLocalTime(ctx, location)
}

// PushToIO sends value to an Adafruit IO feed
func (p *MatrixPortal) PushToIO(ctx context.Context, feed string, value any) error {
	return p.Network.PushToIO(ctx, feed, value)
}

// GetIOData returns every value of an Adafruit IO feed
func (p *MatrixPortal) GetIOData(ctx context.Context, feed string) ([]network.Data, error) {
	return p.Network.GetIOData(ctx, feed)
}

// GetIOFeed returns an Adafruit IO feed
func (p *MatrixPortal) GetIOFeed(ctx context.Context, feed string, detailed bool) (*network.Feed, error) {
	return p.Network.GetIOFeed(ctx, feed, detailed)
}

// GetIOGroup returns an Adafruit IO group
func (p *MatrixPortal) GetIOGroup(ctx context.Context, group string) (*network.Group, error) {
	return p.Network.GetIOGroup(ctx, group)
}
