package store

// baseSchema is applied once, by migration 1, inside RunMigrations. It
// mirrors the entities of spec.md §3 exactly: sessions, observations,
// session summaries, pending events, the two per-project gate singletons,
// AI-usage events, and the FTS5 mirror with its three maintenance
// triggers. Grounded on the original implementation's db.rs schema,
// translated into idiomatic Go/SQLite DDL (explicit indexes named per
// spec.md §4.1's required-index list rather than left implicit).
const baseSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	content_session_id TEXT NOT NULL UNIQUE,
	memory_session_id  TEXT NOT NULL,
	project            TEXT NOT NULL,
	user_prompt        TEXT,
	started_at_epoch   INTEGER NOT NULL,
	status             TEXT NOT NULL DEFAULT 'active',
	prompt_counter     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS observations (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	memory_session_id    TEXT NOT NULL,
	project              TEXT NOT NULL,
	type                 TEXT NOT NULL,
	title                TEXT NOT NULL,
	subtitle             TEXT,
	narrative            TEXT,
	facts                TEXT,
	concepts             TEXT,
	files_read           TEXT,
	files_modified       TEXT,
	prompt_number        INTEGER,
	created_at           TEXT NOT NULL,
	created_at_epoch     INTEGER NOT NULL,
	discovery_tokens     INTEGER NOT NULL DEFAULT 0,
	status               TEXT NOT NULL DEFAULT 'active',
	last_accessed_epoch  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_observations_status
	ON observations(status);
CREATE INDEX IF NOT EXISTS idx_observations_project_status_created
	ON observations(project, status, created_at_epoch DESC);

CREATE TABLE IF NOT EXISTS session_summaries (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	memory_session_id  TEXT NOT NULL,
	project            TEXT NOT NULL,
	request            TEXT,
	completed          TEXT,
	decisions          TEXT,
	learned            TEXT,
	next_steps         TEXT,
	preferences        TEXT,
	created_at         TEXT NOT NULL,
	created_at_epoch   INTEGER NOT NULL,
	discovery_tokens   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_summaries_project_created
	ON session_summaries(project, created_at_epoch DESC);

CREATE TABLE IF NOT EXISTS pending_observations (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id           TEXT NOT NULL,
	project              TEXT NOT NULL,
	tool_name            TEXT NOT NULL,
	tool_input           TEXT,
	tool_response        TEXT,
	cwd                  TEXT,
	created_at_epoch     INTEGER NOT NULL,
	lease_owner          TEXT,
	lease_expires_epoch  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_pending_session_lease
	ON pending_observations(session_id, lease_expires_epoch, id);
CREATE INDEX IF NOT EXISTS idx_pending_project_lease_created
	ON pending_observations(project, lease_expires_epoch, created_at_epoch);

CREATE TABLE IF NOT EXISTS summarize_cooldown (
	project               TEXT PRIMARY KEY,
	last_summarize_epoch  INTEGER NOT NULL,
	last_message_hash     TEXT
);

CREATE TABLE IF NOT EXISTS in_progress_lock (
	project     TEXT PRIMARY KEY,
	lock_epoch  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_usage_events (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at           TEXT NOT NULL,
	created_at_epoch     INTEGER NOT NULL,
	project              TEXT,
	operation            TEXT NOT NULL,
	executor             TEXT NOT NULL,
	model                TEXT,
	input_tokens         INTEGER NOT NULL DEFAULT 0,
	output_tokens        INTEGER NOT NULL DEFAULT 0,
	estimated_cost_usd   REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ai_usage_created
	ON ai_usage_events(created_at_epoch DESC);

CREATE VIRTUAL TABLE IF NOT EXISTS observations_fts USING fts5(
	title, subtitle, narrative, facts, concepts,
	content='observations', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS observations_ai AFTER INSERT ON observations BEGIN
	INSERT INTO observations_fts(rowid, title, subtitle, narrative, facts, concepts)
	VALUES (new.id, new.title, new.subtitle, new.narrative, new.facts, new.concepts);
END;

CREATE TRIGGER IF NOT EXISTS observations_ad AFTER DELETE ON observations BEGIN
	INSERT INTO observations_fts(observations_fts, rowid, title, subtitle, narrative, facts, concepts)
	VALUES ('delete', old.id, old.title, old.subtitle, old.narrative, old.facts, old.concepts);
END;

CREATE TRIGGER IF NOT EXISTS observations_au AFTER UPDATE ON observations BEGIN
	INSERT INTO observations_fts(observations_fts, rowid, title, subtitle, narrative, facts, concepts)
	VALUES ('delete', old.id, old.title, old.subtitle, old.narrative, old.facts, old.concepts);
	INSERT INTO observations_fts(rowid, title, subtitle, narrative, facts, concepts)
	VALUES (new.id, new.title, new.subtitle, new.narrative, new.facts, new.concepts);
END;
`
