package runstore

// schema holds the cleanup run audit tables. Queryable fields get columns;
// the full run, snapshots included, lives in the JSON payload.
const schema = `
CREATE TABLE IF NOT EXISTS cleanup_runs (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    policy_id  TEXT NOT NULL,
    status     TEXT NOT NULL,
    dry_run    INTEGER NOT NULL,
    started_at DATETIME NOT NULL,
    payload    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cleanup_runs_user_started
    ON cleanup_runs(user_id, started_at DESC);
`
