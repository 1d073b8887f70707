package dashboard

import (
	"time"

	"github.com/oasisline/backoffice/internal/settings"
	store "github.com/oasisline/backoffice/internal/store/bookings"
)

// DurationBucket is one slice of the stay-duration summary.
type DurationBucket struct {
	Duration string `json:"duration"`
	Value    int    `json:"value"`
	Color    string `json:"color"`
}

// The fixed bucket order of the duration summary. Ranges overlap at 21
// nights on purpose: first match wins, so a 21-night stay counts as
// "15-21 nights" and only 22+ reaches the last bucket. Changing this would
// silently move historical stays between slices.
var durationLabels = []string{
	"1 night", "2 nights", "3 nights", "4-5 nights",
	"6-7 nights", "8-14 nights", "15-21 nights", "21+ nights",
}

var durationColorsLight = []string{
	"#ef4444", "#f97316", "#eab308", "#84cc16",
	"#22c55e", "#14b8a6", "#3b82f6", "#a855f7",
}

var durationColorsDark = []string{
	"#b91c1c", "#c2410c", "#a16207", "#4d7c0f",
	"#15803d", "#0f766e", "#1d4ed8", "#7e22ce",
}

func durationIndex(nights int) int {
	switch {
	case nights == 1:
		return 0
	case nights == 2:
		return 1
	case nights == 3:
		return 2
	case nights == 4 || nights == 5:
		return 3
	case nights == 6 || nights == 7:
		return 4
	case nights >= 8 && nights <= 14:
		return 5
	case nights >= 15 && nights <= 21:
		return 6
	case nights > 21:
		return 7
	}
	return -1
}

// BucketStays folds stays into the duration histogram. Buckets that counted
// nothing are dropped; the ones that remain keep the fixed bucket order.
func BucketStays(stays []store.Booking, mode settings.Mode) []DurationBucket {
	colors := durationColorsLight
	if mode == settings.ModeDark {
		colors = durationColorsDark
	}
	counts := make([]int, len(durationLabels))
	for _, s := range stays {
		if i := durationIndex(s.NumNights); i >= 0 {
			counts[i]++
		}
	}
	out := make([]DurationBucket, 0, len(durationLabels))
	for i, n := range counts {
		if n > 0 {
			out = append(out, DurationBucket{Duration: durationLabels[i], Value: n, Color: colors[i]})
		}
	}
	return out
}

// SalesPoint is one calendar day of the sales series.
type SalesPoint struct {
	Label       string  `json:"label"`
	TotalSales  float64 `json:"totalSales"`
	ExtrasSales float64 `json:"extrasSales"`
}

// DailySales builds the trailing-window sales series ending at now: exactly
// windowDays points, one per local calendar day, oldest first. Days without
// bookings contribute zero sums rather than being skipped. Bookings are
// matched to days by local calendar date, not timestamp equality.
func DailySales(bookings []store.SalesRecord, windowDays int, now time.Time) []SalesPoint {
	points := make([]SalesPoint, 0, windowDays)
	start := now.AddDate(0, 0, -(windowDays - 1))
	for day := 0; day < windowDays; day++ {
		date := start.AddDate(0, 0, day)
		p := SalesPoint{Label: date.Format("Jan 02")}
		for _, b := range bookings {
			if sameLocalDay(date, b.CreatedAt) {
				p.TotalSales += b.TotalPrice
				p.ExtrasSales += b.ExtrasPrice
			}
		}
		points = append(points, p)
	}
	return points
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
