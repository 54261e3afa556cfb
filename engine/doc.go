// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and registering the nn_l2 SQL
// scalar function used to rank stored points.
package engine
