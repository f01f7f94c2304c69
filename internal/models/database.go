package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store  *bolthold.Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewDatabase creates a new database connection
func NewDatabase(path string, logger *logrus.Logger) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Trackable is a record that can be reconciled through Upsert
type Trackable interface {
	Kind() EntityKind
	SetID(id int64)
	Stamp(now time.Time)
	Values() Fields
	Set(field string, value any) error
	String() string
}

// Upsert creates the record keyed by id with the desired fields, or updates
// the fields that differ. Exactly one audit entry is written on creation and
// on an effective change; a no-op writes nothing. The record and its audit
// entry are committed in the same transaction.
func Upsert[T any, PT interface {
	*T
	Trackable
}](db *Database, id int64, desired Fields, actor string) (PT, bool, error) {
	return upsert[T, PT](db, id, desired, actor, "", true)
}

// Update behaves like Upsert but returns ErrNotFound instead of creating
func Update[T any, PT interface {
	*T
	Trackable
}](db *Database, id int64, desired Fields, actor string) (PT, error) {
	record, _, err := upsert[T, PT](db, id, desired, actor, "", false)
	return record, err
}

func upsert[T any, PT interface {
	*T
	Trackable
}](db *Database, id int64, desired Fields, actor, note string, allowCreate bool) (PT, bool, error) {
	if actor == "" {
		actor = DefaultActor
	}

	record := PT(new(T))
	var (
		created bool
		entry   *AuditEntry
	)

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		now := db.now()

		err := db.store.TxGet(tx, id, record)
		switch {
		case errors.Is(err, bolthold.ErrNotFound):
			if !allowCreate {
				return ErrNotFound
			}
			record.SetID(id)
			for field, value := range desired {
				if err := record.Set(field, value); err != nil {
					return err
				}
			}
			record.Stamp(now)
			if err := db.store.TxInsert(tx, id, record); err != nil {
				return fmt.Errorf("failed to insert %s %d: %w", record.Kind(), id, err)
			}
			created = true
			entry = &AuditEntry{
				Action:  ActionCreated,
				Message: fmt.Sprintf("The %s has been added", record.Kind()),
			}
		case err != nil:
			return fmt.Errorf("failed to load %s %d: %w", record.Kind(), id, err)
		default:
			changes := diffFields(record.Values(), desired)
			if len(changes) == 0 {
				return nil
			}
			for _, change := range changes {
				if err := record.Set(change.Field, desired[change.Field]); err != nil {
					return err
				}
			}
			record.Stamp(now)
			if err := db.store.TxUpdate(tx, id, record); err != nil {
				return fmt.Errorf("failed to update %s %d: %w", record.Kind(), id, err)
			}
			entry = &AuditEntry{
				Action:  ActionChanged,
				Message: changeMessage(changes),
				Changes: changes,
			}
			if note != "" {
				entry.Message = note
			}
		}

		entry.Kind = record.Kind()
		entry.ObjectID = id
		entry.Repr = record.String()
		entry.Actor = actor
		entry.CreatedAt = now
		return db.store.TxInsert(tx, bolthold.NextSequence(), entry)
	})
	if err != nil {
		return nil, false, err
	}

	fields := logrus.Fields{
		"kind": record.Kind(),
		"id":   id,
		"repr": record.String(),
	}
	switch {
	case created:
		db.logger.WithFields(fields).Info("Created record")
	case entry != nil:
		fields["changes"] = entry.Message
		db.logger.WithFields(fields).Info("Updated record")
	default:
		db.logger.WithFields(fields).Debug("Record unchanged")
	}

	return record, created, nil
}

// Show operations

// GetShow retrieves a show by its catalog ID
func (db *Database) GetShow(id int64) (*Show, error) {
	var show Show
	if err := db.store.Get(id, &show); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &show, nil
}

// GetShows retrieves the shows with the given IDs, skipping unknown ones
func (db *Database) GetShows(ids []int64) ([]*Show, error) {
	shows := make([]*Show, 0, len(ids))
	for _, id := range ids {
		show, err := db.GetShow(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}
	return shows, nil
}

// GetAllShows retrieves all shows ordered by name
func (db *Database) GetAllShows() ([]*Show, error) {
	var shows []*Show
	if err := db.store.Find(&shows, nil); err != nil {
		return nil, err
	}
	sort.Slice(shows, func(i, j int) bool { return shows[i].Name < shows[j].Name })
	return shows, nil
}

// GetEnabledShows retrieves shows flagged for automated sync and acquisition
func (db *Database) GetEnabledShows() ([]*Show, error) {
	var shows []*Show
	err := db.store.Find(&shows, bolthold.Where("Enabled").Eq(true).Index("Enabled"))
	return shows, err
}

// SetShowsEnabled flips the enabled flag of existing shows, audit-logged
func (db *Database) SetShowsEnabled(ids []int64, enabled bool, actor string) (int, error) {
	updated := 0
	for _, id := range ids {
		_, err := Update[Show](db, id, Fields{"enabled": enabled}, actor)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// MarkEpisodeDownloaded records a successful acquisition of an episode
func (db *Database) MarkEpisodeDownloaded(id int64, actor string) (*Episode, error) {
	episode, _, err := upsert[Episode](db, id, Fields{"downloaded": true}, actor, "The episode has been downloaded", false)
	return episode, err
}

// MarkEpisodesDownloaded flags existing episodes as downloaded without an acquisition
func (db *Database) MarkEpisodesDownloaded(ids []int64, actor string) (int, error) {
	updated := 0
	for _, id := range ids {
		_, err := Update[Episode](db, id, Fields{"downloaded": true}, actor)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// FindShowByName returns the show whose name is closest to name. Matches
// further than a third of the query length are rejected.
func (db *Database) FindShowByName(name string) (*Show, error) {
	shows, err := db.GetAllShows()
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(name))
	var (
		best     *Show
		bestDist = -1
	)
	for _, show := range shows {
		dist := levenshtein.ComputeDistance(query, strings.ToLower(show.Name))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = show, dist
		}
	}

	if best == nil || bestDist > len(query)/3 {
		return nil, ErrNotFound
	}
	return best, nil
}

// Episode operations

// GetEpisode retrieves an episode by its catalog ID
func (db *Database) GetEpisode(id int64) (*Episode, error) {
	var episode Episode
	if err := db.store.Get(id, &episode); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &episode, nil
}

// GetEpisodes retrieves the episodes with the given IDs, skipping unknown ones
func (db *Database) GetEpisodes(ids []int64) ([]*Episode, error) {
	episodes := make([]*Episode, 0, len(ids))
	for _, id := range ids {
		episode, err := db.GetEpisode(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, nil
}

// GetEpisodesByShow retrieves all episodes of a show ordered by season and number
func (db *Database) GetEpisodesByShow(showID int64) ([]*Episode, error) {
	var episodes []*Episode
	if err := db.store.Find(&episodes, bolthold.Where("ShowID").Eq(showID).Index("ShowID")); err != nil {
		return nil, err
	}
	sortEpisodes(episodes)
	return episodes, nil
}

// GetAllEpisodes retrieves every episode
func (db *Database) GetAllEpisodes() ([]*Episode, error) {
	var episodes []*Episode
	if err := db.store.Find(&episodes, nil); err != nil {
		return nil, err
	}
	sortEpisodes(episodes)
	return episodes, nil
}

// GetToWatchEpisodes retrieves aired, unwatched, not yet downloaded episodes of enabled shows
func (db *Database) GetToWatchEpisodes() ([]*Episode, error) {
	var episodes []*Episode
	query := bolthold.Where("Aired").Eq(true).
		And("Watched").Eq(false).
		And("Downloaded").Eq(false)
	if err := db.store.Find(&episodes, query); err != nil {
		return nil, err
	}

	enabled, err := db.GetEnabledShows()
	if err != nil {
		return nil, err
	}
	enabledIDs := make(map[int64]bool, len(enabled))
	for _, show := range enabled {
		enabledIDs[show.ID] = true
	}

	filtered := episodes[:0]
	for _, episode := range episodes {
		if enabledIDs[episode.ShowID] {
			filtered = append(filtered, episode)
		}
	}
	sortEpisodes(filtered)
	return filtered, nil
}

// GetDueEpisodes is GetToWatchEpisodes restricted to episodes dated on or before today
func (db *Database) GetDueEpisodes(today time.Time) ([]*Episode, error) {
	episodes, err := db.GetToWatchEpisodes()
	if err != nil {
		return nil, err
	}

	cutoff := truncateDay(today)
	due := episodes[:0]
	for _, episode := range episodes {
		if episode.Date != nil && !episode.Date.After(cutoff) {
			due = append(due, episode)
		}
	}
	return due, nil
}

// Audit operations

// GetAuditEntries retrieves the audit trail of one record, oldest first
func (db *Database) GetAuditEntries(kind EntityKind, objectID int64) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	query := bolthold.Where("ObjectID").Eq(objectID).And("Kind").Eq(kind).SortBy("ID")
	err := db.store.Find(&entries, query)
	return entries, err
}

// GetRecentAuditEntries retrieves the latest audit entries, newest first
func (db *Database) GetRecentAuditEntries(limit int) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	query := (&bolthold.Query{}).SortBy("ID").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := db.store.Find(&entries, query)
	return entries, err
}

func sortEpisodes(episodes []*Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		if a.ShowName != b.ShowName {
			return a.ShowName < b.ShowName
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		return a.Number < b.Number
	})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
