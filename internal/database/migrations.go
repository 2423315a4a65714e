package database

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    identity_id VARCHAR(100) PRIMARY KEY,
    username    VARCHAR(50) UNIQUE NOT NULL,
    email       VARCHAR(255) DEFAULT '',
    password    TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    identity_id VARCHAR(100) PRIMARY KEY,
    username    VARCHAR(50) NOT NULL,
    created_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS chats (
    name       VARCHAR(200) PRIMARY KEY,
    type       VARCHAR(10) NOT NULL CHECK (type IN ('public', 'private')),
    admin      VARCHAR(100) NOT NULL,
    created_at BIGINT NOT NULL
);
`

// RunMigrations creates the directory tables.
func (d *DB) RunMigrations() error {
	_, err := d.db.Exec(schema)
	return err
}
