package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create exchanges",
		SQL: `
			CREATE TABLE exchanges (
				id            TEXT PRIMARY KEY,
				session_id    TEXT NOT NULL DEFAULT '',
				question      TEXT NOT NULL,
				answer        TEXT NOT NULL DEFAULT '',
				tool_calls    TEXT,
				trace_id      TEXT NOT NULL DEFAULT '',
				status        TEXT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_exchanges_trace ON exchanges (trace_id);
			CREATE INDEX idx_exchanges_session ON exchanges (session_id);
			CREATE INDEX idx_exchanges_created ON exchanges (created_at);
		`,
	},
	{
		Version: 2,
		Name:    "create feedback markers",
		SQL: `
			CREATE TABLE feedback (
				trace_id     TEXT PRIMARY KEY,
				submitted_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
}
