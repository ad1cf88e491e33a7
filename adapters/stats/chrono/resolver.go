// Package chrono orders free-text visit labels by elapsed study time and
// identifies the canonical final visit shared by both treatment arms.
// Visit chronology is inferred from the labels themselves: the platform
// receives no master visit schedule.
package chrono

import (
	"sort"
	"strconv"
	"strings"

	"trialdash/domain/trial"
)

// unknownDay sorts unrecognized labels after every recognized one.
const unknownDay = int(^uint(0) >> 1)

// VisitDay maps a visit label to integer days since baseline:
// "Screening" is day 0, "Day N" is day N, "Week N" is day 7N,
// "Month N" is day 30N. The second return reports whether the label
// was recognized; unrecognized labels map to the maximum day value.
func VisitDay(label string) (int, bool) {
	name := strings.TrimSpace(label)
	if strings.EqualFold(name, "Screening") {
		return 0, true
	}

	prefixes := []struct {
		prefix string
		factor int
	}{
		{"Day ", 1},
		{"Week ", 7},
		{"Month ", 30},
	}

	for _, p := range prefixes {
		if !strings.HasPrefix(name, p.prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, p.prefix)))
		if err != nil {
			return unknownDay, false
		}
		return n * p.factor, true
	}

	return unknownDay, false
}

// sortByDay applies a stable ascending sort by mapped day value.
// Ties (and runs of unrecognized labels) keep their relative input order.
func sortByDay(visits []string) []string {
	ordered := make([]string, len(visits))
	copy(ordered, visits)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, _ := VisitDay(ordered[i])
		dj, _ := VisitDay(ordered[j])
		return di < dj
	})
	return ordered
}

// ResolveSchedule orders a fixed, caller-supplied visit list chronologically.
// The trend and trajectory panels use this restricted variant against their
// canonical visit lists; it shares VisitDay with ResolveVisits so the two
// paths cannot drift apart.
func ResolveSchedule(visits []string) []string {
	return sortByDay(visits)
}

// ResolveVisits extracts the distinct visit labels present in records,
// orders them chronologically, and selects the final visit: the latest
// visit with at least one record in each of the Active and Placebo arms.
//
// When no visit covers both arms, FinalVisit falls back to the last label
// in input-observation order (not the chronologically sorted order) and the
// resolution carries a warning. Zero records yield an empty resolution;
// callers surface that as "cannot proceed", not as an error.
func ResolveVisits(records []trial.VitalsRecord) trial.VisitResolution {
	if len(records) == 0 {
		return trial.VisitResolution{
			OrderedVisits: []string{},
			FinalVisit:    "",
			Warning:       trial.WarningNoRecords,
		}
	}

	// Distinct labels in first-observation order, plus per-visit arm presence.
	seen := make(map[string]bool)
	observed := make([]string, 0)
	hasActive := make(map[string]bool)
	hasPlacebo := make(map[string]bool)

	for _, rec := range records {
		if !seen[rec.VisitName] {
			seen[rec.VisitName] = true
			observed = append(observed, rec.VisitName)
		}
		switch rec.TreatmentArm {
		case trial.ArmActive:
			hasActive[rec.VisitName] = true
		case trial.ArmPlacebo:
			hasPlacebo[rec.VisitName] = true
		}
	}

	ordered := sortByDay(observed)

	// Walk backward from the chronological end to the first visit covered
	// by both arms.
	for i := len(ordered) - 1; i >= 0; i-- {
		if hasActive[ordered[i]] && hasPlacebo[ordered[i]] {
			return trial.VisitResolution{
				OrderedVisits: ordered,
				FinalVisit:    ordered[i],
			}
		}
	}

	// No common visit: fall back to the last observed label. The fallback
	// deliberately uses observation order, matching the platform's
	// historical behavior, and is always flagged.
	return trial.VisitResolution{
		OrderedVisits: ordered,
		FinalVisit:    observed[len(observed)-1],
		Warning:       trial.WarningNoCommonVisit,
	}
}
