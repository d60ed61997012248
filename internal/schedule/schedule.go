// Package schedule computes per-provider broadcast times for an RFQ race.
// It performs no I/O and reads no ambient clock: for fixed inputs the
// output is reproducible byte for byte.
package schedule

import (
	"sort"
	"time"

	"foundrybay/core/internal/models"
)

// Candidate is the slice of a provider record the scheduler needs.
type Candidate struct {
	ProviderID string
	Timezone   string // IANA name, e.g. "Asia/Tokyo"
	Tier       models.ProviderTier
}

// Entry is one provider's computed broadcast slot. LocalTimeLabel is
// rendered in the provider's own timezone, not server time.
type Entry struct {
	ProviderID     string
	Timezone       string
	ScheduledAt    time.Time
	LocalTimeLabel string
	Delay          time.Duration
}

// Options carries the scheduling tunables. Callers derive these from
// config; nothing here is hardcoded.
type Options struct {
	BroadcastHour int           // local hour standard RFQs target
	TierDelay     time.Duration // penalty applied to non top-tier providers
}

const localTimeFormat = "Mon, 2 Jan 2006 at 15:04 (MST)"

// Plan computes one broadcast slot per candidate, ascending by scheduled
// time (ties keep input order).
//
// Urgent RFQs broadcast at raceOpensAt for everyone, plus the tier delay
// for non top-tier providers. Standard RFQs target the next occurrence of
// the broadcast hour in each provider's local timezone, rolling Saturdays
// and Sundays forward to Monday, plus the same tier delay. A timezone that
// cannot be resolved falls back to tomorrow at the broadcast hour, UTC.
func Plan(raceOpensAt time.Time, urgency models.Urgency, candidates []Candidate, opts Options) []Entry {
	entries := make([]Entry, 0, len(candidates))

	for _, c := range candidates {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil || c.Timezone == "" {
			loc = nil
		}

		var base time.Time
		switch {
		case urgency == models.UrgencyUrgent:
			base = raceOpensAt
		case loc == nil:
			u := raceOpensAt.UTC()
			base = time.Date(u.Year(), u.Month(), u.Day(), opts.BroadcastHour, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		default:
			base = nextBroadcastWindow(raceOpensAt, opts.BroadcastHour, loc)
		}

		var delay time.Duration
		if !c.Tier.IsTopTier() {
			delay = opts.TierDelay
		}
		scheduledAt := base.Add(delay)

		labelLoc := loc
		if labelLoc == nil {
			labelLoc = time.UTC
		}

		entries = append(entries, Entry{
			ProviderID:     c.ProviderID,
			Timezone:       c.Timezone,
			ScheduledAt:    scheduledAt,
			LocalTimeLabel: scheduledAt.In(labelLoc).Format(localTimeFormat),
			Delay:          delay,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ScheduledAt.Before(entries[j].ScheduledAt)
	})
	return entries
}

// nextBroadcastWindow finds the next occurrence of the broadcast hour in
// loc at or after 'from', skipping weekends. If the local time is already
// at or past the hour, the window moves to the next calendar day.
func nextBroadcastWindow(from time.Time, hour int, loc *time.Location) time.Time {
	local := from.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !local.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	for target.Weekday() == time.Saturday || target.Weekday() == time.Sunday {
		target = target.AddDate(0, 0, 1)
	}
	return target
}
