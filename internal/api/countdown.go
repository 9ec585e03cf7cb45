package api

import (
	"context"
	"time"

	"github.com/starford/jobtrail/internal/activity"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/sse"
	"github.com/starford/jobtrail/internal/tracker"
)

// CountdownSnapshot builds the payload for the countdown stream: every
// upcoming interview with its countdown at the tick instant.
func CountdownSnapshot(svc *tracker.Service) sse.SnapshotFunc {
	return func(ctx context.Context, now time.Time) (any, error) {
		up, err := svc.Upcoming(ctx, now)
		if err != nil {
			return nil, err
		}
		tick := CountdownTick{Now: now.In(svc.Location()).Format(time.RFC3339), Items: []CountdownItem{}}
		if up.Next == nil {
			return tick, nil
		}
		for _, ev := range append([]models.Event{*up.Next}, up.Later...) {
			item := CountdownItem{Event: ev}
			if parts, ok := activity.Countdown(ev, now, svc.Location()); ok {
				item.Countdown = &parts
			}
			tick.Items = append(tick.Items, item)
		}
		return tick, nil
	}
}
