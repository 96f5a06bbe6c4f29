// Package tzoffset resolves UTC offsets for IANA timezone identifiers at a
// single fixed reference instant.
//
// The poster shows a recurring weekly schedule with no calendar dates, so
// offsets are sampled once at the reference instant instead of per event
// date. Zones whose DST rules differ between that instant and the actual
// viewing date are off by the DST delta; that is an accepted approximation
// of this design, not something to correct per call.
package tzoffset

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/maypok86/otter/v2"
)

// referenceInstant is the one moment every offset is sampled at.
var referenceInstant = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

const referenceMinuteOfDay = 12 * 60

// Resolver memoizes per-zone UTC offsets for the lifetime of one poster
// session. Entries are never invalidated.
type Resolver struct {
	cache    *otter.Cache[string, int]
	logger   *slog.Logger
	computes atomic.Int64
}

// New creates a Resolver with an empty offset cache.
func New(logger *slog.Logger) *Resolver {
	cache := otter.Must(&otter.Options[string, int]{
		MaximumSize:     1_000,
		InitialCapacity: 64,
	})

	return &Resolver{
		cache:  cache,
		logger: logger,
	}
}

// OffsetMinutes returns the zone's UTC offset in minutes, defined as the
// reference instant's UTC minute-of-day minus its local minute-of-day. The
// sign convention follows from that definition: a zone behind UTC yields a
// positive offset (UTC-5 gives +300), a zone ahead of UTC a negative one
// (UTC+8 gives -480).
//
// The identifier is not validated up front; an unknown zone surfaces as a
// lookup error from the timezone database, fatal to this call.
func (r *Resolver) OffsetMinutes(tz string) (int, error) {
	if offset, ok := r.cache.GetIfPresent(tz); ok {
		return offset, nil
	}

	offset, err := r.compute(tz)
	if err != nil {
		return 0, err
	}

	r.cache.Set(tz, offset)
	r.logger.Debug("timezone offset resolved", "tz", tz, "offset_minutes", offset)
	return offset, nil
}

func (r *Resolver) compute(tz string) (int, error) {
	r.computes.Add(1)

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("loading timezone %q: %w", tz, err)
	}

	// Render the reference instant on the zone's 24-hour clock and read the
	// local hour and minute back.
	wallClock := referenceInstant.In(loc).Format("15:04")
	hourStr, minuteStr, _ := strings.Cut(wallClock, ":")

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, fmt.Errorf("parsing local hour for %q: %w", tz, err)
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return 0, fmt.Errorf("parsing local minute for %q: %w", tz, err)
	}

	// Some 24-hour formatters render local midnight as hour 24.
	if hour == 24 {
		hour = 0
	}

	return referenceMinuteOfDay - (hour*60 + minute), nil
}

// Computes reports how many offsets were computed rather than served from
// the cache. Instrumentation for tests and debug logging.
func (r *Resolver) Computes() int64 {
	return r.computes.Load()
}

// CachedZones reports how many zone identifiers currently have a memoized
// offset.
func (r *Resolver) CachedZones() int {
	return r.cache.EstimatedSize()
}
