package models

import (
	"fmt"
	"time"
)

// Show is a TV show mirrored from the catalog. ID is the catalog identifier.
type Show struct {
	ID      int64 `boltholdKey:"ID"`
	Name    string
	Enabled bool `boltholdIndex:"Enabled"` // Gates automated sync and acquisition

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Show) Kind() EntityKind { return KindShow }

func (s *Show) SetID(id int64) { s.ID = id }

func (s *Show) Stamp(now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

func (s *Show) Values() Fields {
	return Fields{
		"name":    s.Name,
		"enabled": s.Enabled,
	}
}

func (s *Show) Set(field string, value any) error {
	switch field {
	case "name":
		return assign(&s.Name, field, value)
	case "enabled":
		return assign(&s.Enabled, field, value)
	default:
		return fmt.Errorf("show has no tracked field %q", field)
	}
}

func (s *Show) String() string {
	return s.Name
}
