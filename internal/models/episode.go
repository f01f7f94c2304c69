package models

import (
	"fmt"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/utils"
)

// Episode is a single episode mirrored from the catalog. ID is the catalog identifier.
type Episode struct {
	ID       int64 `boltholdKey:"ID"`
	ShowID   int64 `boltholdIndex:"ShowID"`
	ShowName string

	Season int
	Number int
	Name   string

	Date    *time.Time // nil when unknown or unparseable
	Aired   bool
	Watched bool

	// Owned by the acquisition workflow, never written by sync
	Downloaded bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Episode) Kind() EntityKind { return KindEpisode }

func (e *Episode) SetID(id int64) { e.ID = id }

func (e *Episode) Stamp(now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

func (e *Episode) Values() Fields {
	return Fields{
		"show_id":    e.ShowID,
		"show_name":  e.ShowName,
		"season":     e.Season,
		"number":     e.Number,
		"name":       e.Name,
		"date":       e.Date,
		"aired":      e.Aired,
		"watched":    e.Watched,
		"downloaded": e.Downloaded,
	}
}

func (e *Episode) Set(field string, value any) error {
	switch field {
	case "show_id":
		return assign(&e.ShowID, field, value)
	case "show_name":
		return assign(&e.ShowName, field, value)
	case "season":
		return assign(&e.Season, field, value)
	case "number":
		return assign(&e.Number, field, value)
	case "name":
		return assign(&e.Name, field, value)
	case "date":
		return assign(&e.Date, field, value)
	case "aired":
		return assign(&e.Aired, field, value)
	case "watched":
		return assign(&e.Watched, field, value)
	case "downloaded":
		return assign(&e.Downloaded, field, value)
	default:
		return fmt.Errorf("episode has no tracked field %q", field)
	}
}

// String renders the display string, also used as the indexer query
func (e *Episode) String() string {
	return utils.EpisodeLabel(e.ShowName, e.Season, e.Number)
}

// assign stores value into dst when the dynamic type matches
func assign[V any](dst *V, field string, value any) error {
	v, ok := value.(V)
	if !ok {
		return fmt.Errorf("field %q: cannot assign %T", field, value)
	}
	*dst = v
	return nil
}
