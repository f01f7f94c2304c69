package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AuditEntry records a creation or an effective change of a tracked record
type AuditEntry struct {
	ID       uint64     `boltholdKey:"ID"`
	Action   AuditAction
	Kind     EntityKind `boltholdIndex:"Kind"`
	ObjectID int64      `boltholdIndex:"ObjectID"`
	Repr     string
	Actor    string
	Message  string
	Changes  []FieldChange

	CreatedAt time.Time
}

// FieldChange is the old and new rendering of one field
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// diffFields compares desired values against current ones and returns the
// changes for differing fields, sorted by field name
func diffFields(current, desired Fields) []FieldChange {
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	var changes []FieldChange
	for _, name := range names {
		old := current[name]
		want := desired[name]
		if valuesEqual(old, want) {
			continue
		}
		changes = append(changes, FieldChange{
			Field: name,
			Old:   renderValue(old),
			New:   renderValue(want),
		})
	}
	return changes
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case *time.Time:
		bv, ok := b.(*time.Time)
		if !ok {
			return false
		}
		if av == nil || bv == nil {
			return av == nil && bv == nil
		}
		return av.Equal(*bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

func renderValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "<nil>"
	case *time.Time:
		if tv == nil {
			return "<nil>"
		}
		return tv.Format("2006-01-02")
	case time.Time:
		return tv.Format(time.RFC3339)
	default:
		return fmt.Sprint(tv)
	}
}

func changeMessage(changes []FieldChange) string {
	names := make([]string, len(changes))
	for i, c := range changes {
		names[i] = c.Field
	}
	return "Changed " + strings.Join(names, ", ")
}
