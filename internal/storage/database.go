package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kaushik-93/Engram-sub000/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite supports one writer at a time; a single pooled connection
	// keeps concurrent callers queued instead of hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertItem stores a newly promoted item.
func (db *DB) InsertItem(item domain.Item) error {
	_, err := db.conn.Exec(`
		INSERT INTO items (id, source_id, content_hash, concept, clue, interval_minutes, stability, last_recalled_at, next_due_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.SourceID,
		item.ContentHash,
		item.Concept,
		item.Clue,
		item.IntervalMinutes,
		item.Stability,
		nullableTime(item.LastRecalledAt),
		item.NextDueAt.UTC(),
		item.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}
	return nil
}

const itemColumns = `id, source_id, content_hash, concept, clue, interval_minutes, stability, last_recalled_at, next_due_at, version`

// FindItemByID retrieves an item by its id, or (nil, nil) if it does not exist.
func (db *DB) FindItemByID(id string) (*domain.Item, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find item %s: %w", id, err)
	}
	return item, nil
}

// FindItemByContent retrieves an item by (source, content hash), or (nil, nil)
// if that content has not been promoted from the source.
func (db *DB) FindItemByContent(sourceID int64, contentHash string) (*domain.Item, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE source_id = ? AND content_hash = ?`, sourceID, contentHash)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find item with hash %s in source %d: %w", contentHash, sourceID, err)
	}
	return item, nil
}

// UpdateItemState persists a new scheduling state for an item, conditional on
// item.Version still being the stored version. It reports whether the update
// applied; false means another rating won the race and the caller should
// re-read and recompute.
func (db *DB) UpdateItemState(item *domain.Item) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE items
		SET interval_minutes = ?, stability = ?, last_recalled_at = ?, next_due_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`,
		item.IntervalMinutes,
		item.Stability,
		nullableTime(item.LastRecalledAt),
		item.NextDueAt.UTC(),
		item.ID,
		item.Version,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update state for item %s: %w", item.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for item %s: %w", item.ID, err)
	}
	return n == 1, nil
}

// DeleteItemByID removes an item and its review log entries. Used only by
// source reconciliation when the backing content disappears.
func (db *DB) DeleteItemByID(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM review_log WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete review log for item %s: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

// ItemsBySourceID retrieves all items promoted from a source.
func (db *DB) ItemsBySourceID(sourceID int64) ([]domain.Item, error) {
	rows, err := db.conn.Query(`SELECT `+itemColumns+` FROM items WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row for source %d: %w", sourceID, err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// DueItem is an item joined with the title of its owning source, as the
// recall endpoint presents it.
type DueItem struct {
	domain.Item
	SourceTitle string
}

// DueItems lists items whose next_due_at has passed, soonest-due first,
// capped at limit. A sourceID of 0 means all sources.
func (db *DB) DueItems(sourceID int64, now time.Time, limit int) ([]DueItem, error) {
	query := `
		SELECT i.id, i.source_id, i.content_hash, i.concept, i.clue, i.interval_minutes, i.stability, i.last_recalled_at, i.next_due_at, i.version, s.title
		FROM items i
		JOIN sources s ON s.id = i.source_id
		WHERE i.next_due_at <= ?`
	args := []interface{}{now.UTC()}
	if sourceID != 0 {
		query += ` AND i.source_id = ?`
		args = append(args, sourceID)
	}
	query += ` ORDER BY i.next_due_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	defer rows.Close()

	var due []DueItem
	for rows.Next() {
		var d DueItem
		var lastRecalled sql.NullTime
		if err := rows.Scan(
			&d.ID,
			&d.SourceID,
			&d.ContentHash,
			&d.Concept,
			&d.Clue,
			&d.IntervalMinutes,
			&d.Stability,
			&lastRecalled,
			&d.NextDueAt,
			&d.Version,
			&d.SourceTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan due item row: %w", err)
		}
		if lastRecalled.Valid {
			t := lastRecalled.Time
			d.LastRecalledAt = &t
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// AppendReviewLog records a rating event. Entries are never modified.
func (db *DB) AppendReviewLog(entry domain.ReviewLogEntry) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_log (item_id, score, recalled_at)
		VALUES (?, ?, ?)
	`, entry.ItemID, entry.Score, entry.RecalledAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append review log for item %s: %w", entry.ItemID, err)
	}
	return nil
}

// ReviewLogForItem retrieves an item's rating history, oldest first.
func (db *DB) ReviewLogForItem(itemID string) ([]domain.ReviewLogEntry, error) {
	rows, err := db.conn.Query(`
		SELECT item_id, score, recalled_at
		FROM review_log WHERE item_id = ?
		ORDER BY recalled_at ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log for item %s: %w", itemID, err)
	}
	defer rows.Close()

	var entries []domain.ReviewLogEntry
	for rows.Next() {
		var e domain.ReviewLogEntry
		if err := rows.Scan(&e.ItemID, &e.Score, &e.RecalledAt); err != nil {
			return nil, fmt.Errorf("failed to scan review log row for item %s: %w", itemID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Source is a configured origin of study content.
type Source struct {
	ID           int64
	Title        string
	Path         string
	Type         string // "local" or "git"
	LastSyncedAt sql.NullTime
}

// InsertSource stores a new source and returns its ID.
func (db *DB) InsertSource(title, path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (title, path, type)
		VALUES (?, ?, ?)
	`, title, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, or (nil, nil) if absent.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, title, path, type, last_synced_at
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Title, &s.Path, &s.Type, &s.LastSyncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all configured sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, path, type, last_synced_at
		FROM sources ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Title, &s.Path, &s.Type, &s.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and cascades to its items and their review
// log entries.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`
		DELETE FROM review_log
		WHERE item_id IN (SELECT id FROM items WHERE source_id = ?)
	`, id); err != nil {
		return fmt.Errorf("failed to delete review logs for source %d: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM items WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete items for source %d: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastSynced stamps the source with the time of its last sync.
func (db *DB) UpdateSourceLastSynced(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_synced_at = ?
		WHERE id = ?
	`, time.Now().UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last synced for source %d: %w", sourceID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	var lastRecalled sql.NullTime
	err := row.Scan(
		&item.ID,
		&item.SourceID,
		&item.ContentHash,
		&item.Concept,
		&item.Clue,
		&item.IntervalMinutes,
		&item.Stability,
		&lastRecalled,
		&item.NextDueAt,
		&item.Version,
	)
	if err != nil {
		return nil, err
	}
	if lastRecalled.Valid {
		t := lastRecalled.Time
		item.LastRecalledAt = &t
	}
	return &item, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
