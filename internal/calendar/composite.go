package calendar

import (
	"context"
	"time"
)

// Composite asks the primary gateway and every extra busy source. The admin
// is free only if all of them say so; any failure fails closed.
type Composite struct {
	Primary Gateway
	Extra   []FreeBusy
}

func (c Composite) IsFree(ctx context.Context, email string, start, end time.Time) (bool, error) {
	free, err := c.Primary.IsFree(ctx, email, start, end)
	if err != nil || !free {
		return false, err
	}
	for _, src := range c.Extra {
		free, err := src.IsFree(ctx, email, start, end)
		if err != nil || !free {
			return false, err
		}
	}
	return true, nil
}

func (c Composite) CreateEvent(ctx context.Context, ev Event) (string, error) {
	return c.Primary.CreateEvent(ctx, ev)
}
