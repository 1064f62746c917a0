package pricing

import (
	"fmt"
	"time"

	"cruxPassAPI/internal/types/gym"
)

// Monthly price of the Crux Pass Plus subscription, fixed for the MVP.
const SubscriptionPricePaise int64 = 19900

// Fee rates in basis points. Overridden at boot via Configure from env.
var (
	defaultFeeBps    int64 = 1000
	subscriberFeeBps int64 = 500
	gstRateBps       int64 = 1800
)

var ist *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fixed IST offset fallback for environments without tzdata.
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	ist = loc
}

// Configure sets the platform fee and GST rates. Call once at boot.
func Configure(defaultBps, subscriberBps, gstBps int64) {
	defaultFeeBps = defaultBps
	subscriberFeeBps = subscriberBps
	gstRateBps = gstBps
}

// Breakdown is the frozen fee math for one order, all amounts in paise.
type Breakdown struct {
	GymPricePaise    int64 `json:"gym_price_paise"`
	PlatformFeePaise int64 `json:"platform_fee_paise"`
	GSTPaise         int64 `json:"gst_paise"`
	TotalPaise       int64 `json:"total_paise"`
	PlatformFeeBps   int64 `json:"platform_fee_bps"`
	GSTRateBps       int64 `json:"gst_rate_bps"`
}

// Compute returns the full price breakdown for a gym entry or subscription.
//
//	platform_fee = round(price * fee_bps / 10000)
//	gst          = round(platform_fee * gst_bps / 10000)
//	total        = price + platform_fee + gst
//
// Rounding happens at each stage independently, never on the final total.
// Settlement reconciliation depends on this exact two-stage math.
func Compute(gymPricePaise int64, isSubscriber bool) Breakdown {
	feeBps := defaultFeeBps
	if isSubscriber {
		feeBps = subscriberFeeBps
	}

	platformFee := roundBps(gymPricePaise, feeBps)
	gst := roundBps(platformFee, gstRateBps)

	return Breakdown{
		GymPricePaise:    gymPricePaise,
		PlatformFeePaise: platformFee,
		GSTPaise:         gst,
		TotalPaise:       gymPricePaise + platformFee + gst,
		PlatformFeeBps:   feeBps,
		GSTRateBps:       gstRateBps,
	}
}

// roundBps applies a basis-point rate with round-half-up. Amounts are
// non-negative so plain integer arithmetic is enough.
func roundBps(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

// EffectivePrice resolves the gym price at the given instant. Windows are
// checked in order; the first one whose weekday set contains the local
// (IST) weekday and whose [start,end) interval contains the local
// time-of-day wins, otherwise the base price applies.
//
// The comparison is string-lexicographic on zero-padded "HH:MM:SS", which
// is correct only because all three fields are fixed width.
func EffectivePrice(basePricePaise int64, windows []gym.PriceWindow, now time.Time) int64 {
	local := now.In(ist)
	day := int(local.Weekday()) // 0=Sun … 6=Sat
	timeStr := fmt.Sprintf("%02d:%02d:%02d", local.Hour(), local.Minute(), local.Second())

	for _, win := range windows {
		if !containsDay(win.DaysOfWeek, day) {
			continue
		}
		if timeStr >= win.StartTime && timeStr < win.EndTime {
			return win.PricePaise
		}
	}
	return basePricePaise
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
