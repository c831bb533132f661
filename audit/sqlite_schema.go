package audit

// schemaVersion is the current database schema version.
const schemaVersion = 1

// schema contains the SQL statements that create the audit database.
const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    request_time TIMESTAMP NOT NULL,
    dispatch_time TIMESTAMP,
    response_time TIMESTAMP,
    recorded_time TIMESTAMP NOT NULL,

    method TEXT NOT NULL,
    path TEXT NOT NULL,
    target TEXT NOT NULL,

    status INTEGER,
    error_kind TEXT,
    error TEXT,
    retry_count INTEGER,
    rate_limited BOOLEAN,

    request_bytes INTEGER,
    response_bytes INTEGER,
    duration_ms INTEGER,

    user_id TEXT,
    team_id TEXT,
    api_key TEXT,
    client_ip TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_request_time ON audit_records(request_time);
CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_records(user_id);
CREATE INDEX IF NOT EXISTS idx_audit_team_id ON audit_records(team_id);
CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_records(target);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
