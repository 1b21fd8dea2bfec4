package normalize

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// ConsolidationPolicy decides how several punches of one day collapse into one interval.
type ConsolidationPolicy string

const (
	// PolicyFirstLast takes the earliest IN and the latest OUT.
	PolicyFirstLast ConsolidationPolicy = "first_last"
	// PolicyPaired pairs each IN with the next OUT and sums the pairs.
	PolicyPaired ConsolidationPolicy = "paired"
)

const day = 24 * time.Hour

var secondsPerHour = decimal.NewFromInt(3600)

// Interval is the consolidated result for one employee-day.
type Interval struct {
	FirstIn   *time.Time
	LastOut   *time.Time
	Hours     decimal.NullDecimal
	Anomalies []attendance.RowAnomaly
}

// Consolidate reduces a day's punches to one interval. LastOut is reported after the
// overnight adjustment, so an out punch on the following morning carries that date.
func Consolidate(group attendance.DailyPunchGroup, policy ConsolidationPolicy) Interval {
	if policy == PolicyPaired {
		return consolidatePaired(group.Events)
	}
	return consolidateFirstLast(group.Events)
}

func consolidateFirstLast(events []attendance.RawPunchEvent) Interval {
	var firstIn, lastOut *time.Time
	var unknown []time.Time
	for _, e := range events {
		ts := e.Timestamp
		switch e.Direction {
		case attendance.DirectionIn:
			if firstIn == nil || ts.Before(*firstIn) {
				firstIn = &ts
			}
		case attendance.DirectionOut:
			if lastOut == nil || ts.After(*lastOut) {
				lastOut = &ts
			}
		default:
			unknown = append(unknown, ts)
		}
	}

	// Undirected punches fill whichever side is missing: earliest as in, latest as out.
	if len(unknown) > 0 {
		sort.Slice(unknown, func(i, j int) bool { return unknown[i].Before(unknown[j]) })
		if firstIn == nil {
			first := unknown[0]
			firstIn = &first
			unknown = unknown[1:]
		}
		if lastOut == nil && len(unknown) > 0 {
			last := unknown[len(unknown)-1]
			lastOut = &last
		}
	}

	iv := Interval{FirstIn: firstIn, LastOut: lastOut}
	if firstIn == nil || lastOut == nil {
		return iv
	}

	out, kind, ok := adjustOvernight(*firstIn, *lastOut)
	if !ok {
		iv.Anomalies = append(iv.Anomalies, attendance.RowAnomaly{
			Kind:   kind,
			Detail: fmt.Sprintf("in %s, out %s", firstIn.Format(attendance.DateTimeLayout), lastOut.Format(attendance.DateTimeLayout)),
		})
		return iv
	}
	iv.LastOut = &out
	iv.Hours = decimal.NewNullDecimal(hoursBetween(*firstIn, out))
	return iv
}

type span struct {
	start time.Time
	end   time.Time
}

func consolidatePaired(events []attendance.RawPunchEvent) Interval {
	var iv Interval
	var pairs []span
	var open *time.Time

	unmatched := func(dir attendance.Direction, ts time.Time) {
		iv.Anomalies = append(iv.Anomalies, attendance.RowAnomaly{
			Kind:   attendance.AnomalyInconsistentPunch,
			Detail: fmt.Sprintf("unmatched %s at %s", dir, ts.Format("15:04")),
		})
	}

	for _, e := range events {
		ts := e.Timestamp
		dir := e.Direction
		if dir == attendance.DirectionUnknown {
			dir = attendance.DirectionIn
			if open != nil {
				dir = attendance.DirectionOut
			}
		}

		switch dir {
		case attendance.DirectionIn:
			if open != nil {
				unmatched(attendance.DirectionIn, *open)
			}
			open = &ts
			if iv.FirstIn == nil || ts.Before(*iv.FirstIn) {
				iv.FirstIn = &ts
			}
		case attendance.DirectionOut:
			if open == nil {
				unmatched(attendance.DirectionOut, ts)
				if iv.LastOut == nil || ts.After(*iv.LastOut) {
					iv.LastOut = &ts
				}
				continue
			}
			out, kind, ok := adjustOvernight(*open, ts)
			if !ok {
				iv.Anomalies = append(iv.Anomalies, attendance.RowAnomaly{
					Kind:   kind,
					Detail: fmt.Sprintf("pair %s to %s", open.Format("15:04"), ts.Format("15:04")),
				})
				open = nil
				continue
			}
			pairs = append(pairs, span{start: *open, end: out})
			if iv.LastOut == nil || out.After(*iv.LastOut) {
				iv.LastOut = &out
			}
			open = nil
		}
	}
	if open != nil {
		unmatched(attendance.DirectionIn, *open)
	}

	if len(pairs) > 0 {
		iv.Hours = decimal.NewNullDecimal(hoursOf(mergedDuration(pairs)))
	}
	return iv
}

// adjustOvernight applies the single +24h rule to an out punch that is not after the in
// punch. Spans longer than one day, or still negative, are rejected.
func adjustOvernight(in, out time.Time) (time.Time, attendance.AnomalyKind, bool) {
	if !out.After(in) {
		out = out.Add(day)
	}
	switch {
	case !out.After(in):
		return out, attendance.AnomalyInconsistentPunch, false
	case out.Sub(in) > day:
		return out, attendance.AnomalyMultiMidnight, false
	}
	return out, "", true
}

// mergedDuration sums the union of the spans, so overlapping pairs are counted once.
func mergedDuration(spans []span) time.Duration {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	var total time.Duration
	cur := sorted[0]
	for _, s := range sorted[1:] {
		if !s.start.After(cur.end) {
			if s.end.After(cur.end) {
				cur.end = s.end
			}
			continue
		}
		total += cur.end.Sub(cur.start)
		cur = s
	}
	return total + cur.end.Sub(cur.start)
}

func hoursBetween(in, out time.Time) decimal.Decimal {
	return hoursOf(out.Sub(in))
}

func hoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour).Round(2)
}
