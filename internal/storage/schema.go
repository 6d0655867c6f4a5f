package storage

const schema = `
-- The 'sources' table tracks where study content comes from, either a local
-- directory or a git repository of concept files.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_synced_at DATETIME
);

-- The 'items' table holds each reviewable concept and its scheduling state.
-- 'version' counts state updates; rating application is conditional on it.
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    source_id INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    concept TEXT NOT NULL,
    clue TEXT NOT NULL DEFAULT '',
    interval_minutes INTEGER NOT NULL DEFAULT 0,
    stability REAL NOT NULL DEFAULT 1.0,
    last_recalled_at DATETIME,
    next_due_at DATETIME NOT NULL,
    version INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_items_next_due_at ON items(next_due_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_items_source_content ON items(source_id, content_hash);

-- The 'review_log' table is the append-only record of rating events.
-- Rows are never updated or deleted during normal operation.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL,
    score REAL NOT NULL,
    recalled_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_log_item ON review_log(item_id, recalled_at);
`
