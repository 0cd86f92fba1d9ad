package game

import (
	"time"

	"github.com/mgmcelwee/evony/internal/model"
)

// RateAccruer is the default Accruer: it applies each city's per-minute
// production rates to its stockpile, capped at the storage caps, and
// advances the accrual watermark by whole minutes only so fractional time is
// never lost between calls.
type RateAccruer struct{}

// Accrue credits production earned between the city's last watermark and
// asOf.  Cities whose watermark is unset start accruing from asOf.
func (RateAccruer) Accrue(c *model.City, asOf time.Time) {
	last := c.LastTickAt
	if last.IsZero() {
		c.LastTickAt = asOf
		return
	}
	minutes := int64(asOf.Sub(last) / time.Minute)
	if minutes <= 0 {
		return
	}
	for _, k := range model.ResourceKinds {
		earned := c.Rates.Get(k) * minutes
		if earned <= 0 {
			continue
		}
		v := c.Stock.Get(k) + earned
		if cap := c.Cap.Get(k); v > cap {
			v = cap
		}
		c.Stock = c.Stock.Set(k, v)
	}
	c.LastTickAt = last.Add(time.Duration(minutes) * time.Minute)
}
