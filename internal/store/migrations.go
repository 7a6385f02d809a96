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
		Name:    "create sessions",
		SQL: `
			CREATE TABLE sessions (
				identity     TEXT PRIMARY KEY,
				login_token  TEXT,
				account_id   TEXT,
				vin          TEXT,
				committed_at TEXT,
				created_at   TEXT NOT NULL,
				updated_at   TEXT NOT NULL,
				CHECK ((account_id IS NULL) = (vin IS NULL))
			);
		`,
	},
	{
		Version: 2,
		Name:    "add bootstrap state",
		SQL: `
			ALTER TABLE sessions ADD COLUMN bootstrap_phase TEXT NOT NULL DEFAULT '';
			ALTER TABLE sessions ADD COLUMN bootstrap_turns_left INTEGER NOT NULL DEFAULT 0;
			ALTER TABLE sessions ADD COLUMN bootstrap_deadline TEXT;

			CREATE INDEX idx_sessions_updated ON sessions (updated_at);
		`,
	},
}
