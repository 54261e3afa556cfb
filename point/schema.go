package point

import (
	"database/sql"
)

const pointsSchema = `
CREATE TABLE IF NOT EXISTS points (
    dataset_id TEXT NOT NULL,
    id         INTEGER NOT NULL,
    pos        INTEGER NOT NULL,
    image_ref  TEXT NOT NULL,
    label      INTEGER NOT NULL,
    coords     BLOB NOT NULL,
    PRIMARY KEY(dataset_id, id)
);
`

// EnsureSchema creates the points table in the provided database if it does
// not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(pointsSchema)
	return err
}
