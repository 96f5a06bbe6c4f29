// Package tzconvert converts wall-clock "HH:MM" strings between timezones.
//
// Times here carry no calendar date: conversion happens on a minute line and
// reports how many day boundaries were crossed instead of adjusting a date.
// Strings that are not HH:MM shaped (schedule placeholders like "時間待定")
// pass through untouched.
package tzconvert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// wallClockRegex matches "H:MM" or "HH:MM". Minutes are stricter than hours:
// they must already be two digits.
var wallClockRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// OffsetSource resolves a zone's UTC offset in minutes (UTC minus local at
// the source's reference instant). tzoffset.Resolver satisfies it.
type OffsetSource interface {
	OffsetMinutes(tz string) (int, error)
}

// Result is a converted wall-clock display string plus the signed number of
// calendar-day boundaries the conversion crossed.
type Result struct {
	Display   string
	DayOffset int
}

// Convert re-expresses timeStr, a wall-clock time in fromTZ, as a wall-clock
// time in toTZ. Same-zone calls and non-time strings return the input
// unchanged with DayOffset 0. Offset resolution failures propagate and are
// fatal to this call only.
func Convert(timeStr, fromTZ, toTZ string, src OffsetSource) (Result, error) {
	if fromTZ == toTZ || !wallClockRegex.MatchString(timeStr) {
		return Result{Display: timeStr}, nil
	}

	// The regex guarantees both components parse.
	hourStr, minuteStr, _ := strings.Cut(timeStr, ":")
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minuteStr)

	fromOffset, err := src.OffsetMinutes(fromTZ)
	if err != nil {
		return Result{}, fmt.Errorf("resolving source zone: %w", err)
	}
	toOffset, err := src.OffsetMinutes(toTZ)
	if err != nil {
		return Result{}, fmt.Errorf("resolving target zone: %w", err)
	}

	// Position on an unbounded minute line; whole days away from the source
	// day become the rollover count.
	raw := hour*60 + minute + fromOffset - toOffset

	dayOffset := raw / minutesPerDay
	if raw < 0 && raw%minutesPerDay != 0 {
		// Go truncates integer division toward zero; rollover needs floor.
		dayOffset--
	}
	normalized := ((raw % minutesPerDay) + minutesPerDay) % minutesPerDay

	return Result{
		Display:   fmt.Sprintf("%02d:%02d", normalized/60, normalized%60),
		DayOffset: dayOffset,
	}, nil
}
