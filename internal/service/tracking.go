package service

import (
	"context"
	"math"
	"time"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// ProgressInterval is how often WatchProgress recomputes the estimate
const ProgressInterval = time.Second

// Progress is a time-based guess at how far along an order is. It is never
// reported by the kitchen; Estimated is always true so views can say so.
type Progress struct {
	OrderID   string
	Status    models.OrderStatus
	Elapsed   time.Duration
	Percent   float64
	Estimated bool
}

// EstimateProgress derives a display percentage from the order status and the
// whole minutes elapsed since placement
func EstimateProgress(o models.Order, now time.Time) Progress {
	elapsed := now.Sub(o.PlacedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	e := math.Floor(elapsed.Minutes())

	var pct float64
	switch o.Status {
	case models.OrderStatusPending:
		pct = math.Min(10, 2*e)
	case models.OrderStatusConfirmed:
		pct = math.Min(25, 15+1.5*e)
	case models.OrderStatusPreparing:
		pct = math.Min(80, 30+2*e)
	case models.OrderStatusReady, models.OrderStatusServed:
		pct = 100
	}

	return Progress{
		OrderID:   o.ID,
		Status:    o.Status,
		Elapsed:   elapsed,
		Percent:   pct,
		Estimated: true,
	}
}

// WatchProgress calls fn with a fresh estimate every interval until ctx ends.
// A non-positive interval means ProgressInterval.
func WatchProgress(ctx context.Context, o models.Order, now func() time.Time, interval time.Duration, fn func(Progress)) {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = ProgressInterval
	}
	fn(EstimateProgress(o, now()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(EstimateProgress(o, now()))
		}
	}
}
