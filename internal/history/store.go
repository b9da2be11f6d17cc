// Package history persists watch progress in a local SQLite database so a
// later run can resume an interrupted session without re-searching.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/models"
)

const (
	busyTimeout       = 5000 // milliseconds
	walAutoCheckpoint = 1000 // pages
	maxOpenConns      = 5
	maxIdleConns      = 2
)

// Entry is one row of watch progress. A movie leaves the season and
// episode fields empty; the (MediaID, SeasonID, EpisodeID) triple is the
// primary key either way.
type Entry struct {
	MediaID       string
	MediaType     models.MediaType
	Title         string
	SeasonID      string
	SeasonNumber  int
	EpisodeID     string
	EpisodeNumber int
	EpisodeTitle  string
	// Position is the playback position as "HH:MM:SS".
	Position string
	Updated  time.Time
}

// Media reconstructs the media item this entry tracks.
func (e *Entry) Media() models.Media {
	return models.Media{ID: e.MediaID, Title: e.Title, Type: e.MediaType}
}

func (e *Entry) String() string {
	if e.MediaType == models.MediaTypeTV {
		return fmt.Sprintf("%s S%02dE%02d [%s]", e.Title, e.SeasonNumber, e.EpisodeNumber, e.Position)
	}
	return fmt.Sprintf("%s [%s]", e.Title, e.Position)
}

// Store is a SQLite-backed history store. The zero value is not usable;
// call Open.
type Store struct {
	db       *sql.DB
	upsertPS *sql.Stmt
	getPS    *sql.Stmt
	listPS   *sql.Stmt
	deletePS *sql.Stmt
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, errors.Wrap(err, "creating history directory")
	}

	db, err := sql.Open("sqlite3", historyDSN(dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "opening history database")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.prepare(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// historyDSN builds the SQLite DSN. Windows paths need forward slashes in
// URI form.
func historyDSN(dbPath string) string {
	if runtime.GOOS == "windows" {
		dbPath = strings.ReplaceAll(dbPath, "\\", "/")
	}
	return fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_wal_autocheckpoint=%d&_busy_timeout=%d",
		dbPath, walAutoCheckpoint, busyTimeout,
	)
}

func initSchema(db *sql.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS watch_history (
		media_id       TEXT NOT NULL,
		media_type     TEXT NOT NULL,
		title          TEXT NOT NULL,
		season_id      TEXT NOT NULL DEFAULT '',
		season_number  INTEGER NOT NULL DEFAULT 0,
		episode_id     TEXT NOT NULL DEFAULT '',
		episode_number INTEGER NOT NULL DEFAULT 0,
		episode_title  TEXT NOT NULL DEFAULT '',
		position       TEXT NOT NULL DEFAULT '00:00:00',
		updated        INTEGER NOT NULL,
		PRIMARY KEY (media_id, season_id, episode_id)
	);`
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "creating history schema")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_updated ON watch_history(updated DESC)`); err != nil {
		return errors.Wrap(err, "creating history index")
	}
	return nil
}

func (s *Store) prepare() error {
	var err error

	s.upsertPS, err = s.db.Prepare(`INSERT INTO watch_history (
		media_id, media_type, title,
		season_id, season_number,
		episode_id, episode_number, episode_title,
		position, updated
	) VALUES (?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(media_id, season_id, episode_id) DO UPDATE SET
		title = excluded.title,
		season_number = excluded.season_number,
		episode_number = excluded.episode_number,
		episode_title = excluded.episode_title,
		position = excluded.position,
		updated = excluded.updated`)
	if err != nil {
		return errors.Wrap(err, "preparing upsert")
	}

	s.getPS, err = s.db.Prepare(`SELECT
		media_id, media_type, title,
		season_id, season_number,
		episode_id, episode_number, episode_title,
		position, updated
	FROM watch_history
	WHERE media_id = ? AND season_id = ? AND episode_id = ?`)
	if err != nil {
		return errors.Wrap(err, "preparing get")
	}

	s.listPS, err = s.db.Prepare(`SELECT
		media_id, media_type, title,
		season_id, season_number,
		episode_id, episode_number, episode_title,
		position, updated
	FROM watch_history
	ORDER BY updated DESC
	LIMIT ?`)
	if err != nil {
		return errors.Wrap(err, "preparing list")
	}

	s.deletePS, err = s.db.Prepare(`DELETE FROM watch_history WHERE media_id = ?`)
	if err != nil {
		return errors.Wrap(err, "preparing delete")
	}

	return nil
}

// Save upserts one entry, stamping it with the current time when
// e.Updated is zero.
func (s *Store) Save(e Entry) error {
	if e.MediaID == "" {
		return errors.New("history entry lacks a media id")
	}
	if e.Position == "" {
		e.Position = "00:00:00"
	}
	updated := e.Updated
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := s.upsertPS.Exec(
		e.MediaID, string(e.MediaType), e.Title,
		e.SeasonID, e.SeasonNumber,
		e.EpisodeID, e.EpisodeNumber, e.EpisodeTitle,
		e.Position, updated.Unix(),
	)
	return errors.Wrap(err, "saving history entry")
}

// Get returns the entry for the exact (media, season, episode) key, or nil
// when none exists.
func (s *Store) Get(mediaID, seasonID, episodeID string) (*Entry, error) {
	e, err := scanEntry(s.getPS.QueryRow(mediaID, seasonID, episodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading history entry")
	}
	return e, nil
}

// List returns up to limit entries, most recently updated first.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.listPS.Query(limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing history")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning history row")
		}
		entries = append(entries, *e)
	}
	return entries, errors.Wrap(rows.Err(), "iterating history rows")
}

// Recent returns the single most recently updated entry, or nil when the
// history is empty.
func (s *Store) Recent() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// DeleteMedia removes every entry for a media item, all episodes included.
func (s *Store) DeleteMedia(mediaID string) error {
	_, err := s.deletePS.Exec(mediaID)
	return errors.Wrap(err, "deleting history entries")
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.upsertPS, s.getPS, s.listPS, s.deletePS} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var mediaType string
	var updated int64

	err := row.Scan(
		&e.MediaID, &mediaType, &e.Title,
		&e.SeasonID, &e.SeasonNumber,
		&e.EpisodeID, &e.EpisodeNumber, &e.EpisodeTitle,
		&e.Position, &updated,
	)
	if err != nil {
		return nil, err
	}
	e.MediaType = models.MediaType(mediaType)
	e.Updated = time.Unix(updated, 0)
	return &e, nil
}
