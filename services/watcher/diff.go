package watcher

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"raspbot-backend/lib/scrapers/kis"
)

// HashPages fingerprints a day's rendered pages. Order- and
// case-sensitive on purpose: any visible difference must produce a
// different hash. Empty input hashes to the empty string so "never
// rendered" and "rendered empty" stay distinguishable from real content.
func HashPages(pages []string) string {
	if len(pages) == 0 {
		return ""
	}
	sum := md5.Sum([]byte(strings.Join(pages, "\n")))
	return hex.EncodeToString(sum[:])
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Change describes one difference between two structured days.
type Change struct {
	Kind ChangeKind
	// the time slot the change applies to
	Time   string
	Before *kis.ClassSession
	After  *kis.ClassSession
	// names of the fields that differ, only set for modifications
	Fields []string
}

// Diff compares two structured days keyed by time slot. Either side may
// be nil: a day appearing from nothing reports every session added, a
// day vanishing reports every session removed. Pure function, no I/O.
func Diff(oldDay, newDay *kis.DaySchedule) []Change {
	if oldDay == nil && newDay == nil {
		return nil
	}
	if oldDay == nil {
		changes := make([]Change, 0, len(newDay.Sessions))
		for i := range newDay.Sessions {
			s := newDay.Sessions[i]
			changes = append(changes, Change{Kind: ChangeAdded, Time: s.Time, After: &s})
		}
		return changes
	}
	if newDay == nil {
		changes := make([]Change, 0, len(oldDay.Sessions))
		for i := range oldDay.Sessions {
			s := oldDay.Sessions[i]
			changes = append(changes, Change{Kind: ChangeRemoved, Time: s.Time, Before: &s})
		}
		return changes
	}

	oldByTime := sessionsByTime(oldDay.Sessions)
	newByTime := sessionsByTime(newDay.Sessions)

	var changes []Change
	for i := range newDay.Sessions {
		s := newDay.Sessions[i]
		if _, exists := oldByTime[s.Time]; !exists {
			changes = append(changes, Change{Kind: ChangeAdded, Time: s.Time, After: &s})
		}
	}
	for i := range oldDay.Sessions {
		s := oldDay.Sessions[i]
		if _, exists := newByTime[s.Time]; !exists {
			changes = append(changes, Change{Kind: ChangeRemoved, Time: s.Time, Before: &s})
		}
	}
	for i := range oldDay.Sessions {
		before := oldDay.Sessions[i]
		after, exists := newByTime[before.Time]
		if !exists {
			continue
		}
		fields := changedFields(before, *after)
		if len(fields) > 0 {
			changes = append(changes, Change{
				Kind:   ChangeModified,
				Time:   before.Time,
				Before: &before,
				After:  after,
				Fields: fields,
			})
		}
	}

	return changes
}

func sessionsByTime(sessions []kis.ClassSession) map[string]*kis.ClassSession {
	byTime := make(map[string]*kis.ClassSession, len(sessions))
	for i := range sessions {
		byTime[sessions[i].Time] = &sessions[i]
	}
	return byTime
}

func changedFields(before, after kis.ClassSession) []string {
	var fields []string
	if before.Subject != after.Subject {
		fields = append(fields, "subject")
	}
	if before.Room.Name != after.Room.Name {
		fields = append(fields, "room")
	}
	if before.Teacher != after.Teacher {
		fields = append(fields, "teacher")
	}
	// group lists compare as unordered sets, the portal shuffles them
	if !sameGroupSet(before.Groups, after.Groups) {
		fields = append(fields, "groups")
	}
	return fields
}

func sameGroupSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, g := range a {
		set[g]++
	}
	for _, g := range b {
		set[g]--
		if set[g] < 0 {
			return false
		}
	}
	return true
}
