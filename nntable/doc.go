// Package nntable exposes neighbor queries as a SQLite virtual table.
//
//	CREATE VIRTUAL TABLE neighbors USING nn(index=cover, policy=id);
//	SELECT id, distance FROM neighbors
//	WHERE dataset_id = 'covid' AND query = 12 AND k = 7;
//
// dataset_id and query are required; without k every other point is
// ranked. Rows come out ordered by distance then id. Point sets are read
// from the Store bound with SetSource and the per-dataset finder is built
// once and cached until Invalidate (or SQL nn_invalidate(dataset)) drops
// it.
//
// Point sets are loaded over a separate connection, so the database must
// be file backed; a single-connection ":memory:" handle would block.
package nntable
