// Package schedule expands the recurring volunteer shifts declared in
// configuration into concrete upcoming dates for display. It has no
// interaction with the hours ledger.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// Rule is one recurring shift, described by an RFC 5545 recurrence rule.
type Rule struct {
	Name  string
	RRule string
}

// Occurrence is one concrete upcoming shift date.
type Occurrence struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Upcoming expands the rules into the next count occurrences on or after
// from, merged across rules and sorted by date.
func Upcoming(rules []Rule, from time.Time, count int) ([]Occurrence, error) {
	if count <= 0 {
		return nil, fmt.Errorf("occurrence count must be positive, got %d", count)
	}

	var all []Occurrence
	for _, rule := range rules {
		r, err := rrule.StrToRRule(rule.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule for shift %q: %w", rule.Name, err)
		}
		r.DTStart(from.UTC().Truncate(24 * time.Hour))

		next := r.After(from, true)
		for i := 0; i < count && !next.IsZero(); i++ {
			all = append(all, Occurrence{Name: rule.Name, Date: next})
			next = r.After(next, false)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Date.Equal(all[j].Date) {
			return all[i].Name < all[j].Name
		}
		return all[i].Date.Before(all[j].Date)
	})

	if len(all) > count {
		all = all[:count]
	}
	return all, nil
}
