// Package eld projects a planned segment timeline onto standard DOT daily
// log sheets. Each sheet covers midnight to midnight, lists duty-status
// entries on a 0-24 hour grid, and carries per-status hour totals, miles
// driven that day, and a timestamped remark for every segment with a
// reason, drive segments included.
package eld

import (
	"fmt"
	"sort"
	"time"

	"github.com/draymaster/trip-planner/internal/domain"
)

// GenerateLogs produces one daily log per calendar day spanned by the
// segments. The range starts at the later of tripStartDate and the first
// segment's date, and ends on the last segment's end date. An empty
// segment list yields no logs. The projection is lossless: segments
// crossing midnight are sliced at the boundary and duty-hour totals are
// preserved across days.
func GenerateLogs(segments []domain.Segment, tripStartDate *time.Time) []domain.DailyLog {
	if len(segments) == 0 {
		return nil
	}

	firstStart := segments[0].StartTime
	lastEnd := segments[len(segments)-1].EndTime

	startDate := dateOf(firstStart)
	if tripStartDate != nil {
		if d := dateOf(*tripStartDate); d.After(startDate) {
			startDate = d
		}
	}
	endDate := dateOf(lastEnd)

	var logs []domain.DailyLog
	dayNum := 0

	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		dayStart := day
		dayEnd := day.AddDate(0, 0, 1)

		var entries []domain.LogEntry
		var remarks []string
		dayMiles := 0.0

		for i := range segments {
			seg := &segments[i]
			segStart := maxTime(seg.StartTime, dayStart)
			segEnd := minTime(seg.EndTime, dayEnd)
			if !segStart.Before(segEnd) {
				continue
			}

			startHour := segStart.Sub(dayStart).Hours()
			endHour := segEnd.Sub(dayStart).Hours()

			entries = append(entries, domain.LogEntry{
				Status:      domain.DutyStatusFromInput(string(seg.DutyStatus)),
				StartHour:   domain.Round(startHour, 4),
				EndHour:     domain.Round(endHour, 4),
				SegmentType: string(seg.Kind),
			})

			// Apportion drive miles by the fraction of the segment that
			// falls on this day.
			if seg.DutyStatus == domain.DutyStatusDriving && seg.DistanceMiles > 0 {
				if segHours := seg.DurationHours(); segHours > 0 {
					dayMiles += seg.DistanceMiles * ((endHour - startHour) / segHours)
				}
			}

			if seg.Reason != "" && !segStart.Before(seg.StartTime) {
				remarks = append(remarks, fmt.Sprintf("%s - %s", segStart.Format("15:04"), seg.Reason))
			}
		}

		entries = fillGaps(entries)

		var totals domain.TotalHours
		for _, e := range entries {
			d := e.EndHour - e.StartHour
			switch e.Status {
			case domain.DutyStatusSleeper:
				totals.SleeperBerth += d
			case domain.DutyStatusDriving:
				totals.Driving += d
			case domain.DutyStatusOnDuty:
				totals.OnDutyNotDriving += d
			default:
				totals.OffDuty += d
			}
		}
		totals.OffDuty = domain.Round(totals.OffDuty, 2)
		totals.SleeperBerth = domain.Round(totals.SleeperBerth, 2)
		totals.Driving = domain.Round(totals.Driving, 2)
		totals.OnDutyNotDriving = domain.Round(totals.OnDutyNotDriving, 2)

		dayNum++
		logs = append(logs, domain.DailyLog{
			Date:       day.Format("2006-01-02"),
			DayNumber:  dayNum,
			Entries:    entries,
			TotalHours: totals,
			TotalMiles: domain.Round(dayMiles, 1),
			Remarks:    remarks,
		})
	}

	return logs
}

// fillGaps pads a sorted day's entries so they tile [0, 24] exactly,
// inserting off-duty entries for any uncovered span.
func fillGaps(entries []domain.LogEntry) []domain.LogEntry {
	if len(entries) == 0 {
		return []domain.LogEntry{{
			Status:      domain.DutyStatusOffDuty,
			StartHour:   0,
			EndHour:     24,
			SegmentType: "off_duty",
		}}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartHour < entries[j].StartHour
	})

	filled := make([]domain.LogEntry, 0, len(entries)+2)
	currentHour := 0.0

	for _, entry := range entries {
		if entry.StartHour > currentHour+0.01 {
			filled = append(filled, domain.LogEntry{
				Status:      domain.DutyStatusOffDuty,
				StartHour:   domain.Round(currentHour, 4),
				EndHour:     domain.Round(entry.StartHour, 4),
				SegmentType: "off_duty",
			})
		}
		filled = append(filled, entry)
		currentHour = entry.EndHour
	}

	if currentHour < 23.99 {
		filled = append(filled, domain.LogEntry{
			Status:      domain.DutyStatusOffDuty,
			StartHour:   domain.Round(currentHour, 4),
			EndHour:     24,
			SegmentType: "off_duty",
		})
	}

	return filled
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
