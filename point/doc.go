// Package point defines the immutable 2D point model used across this
// project. It includes:
//   - Point, Set, Neighbor and Result types
//   - Euclidean distance helpers shared by every index
//   - the error taxonomy reported by neighbor queries
//   - coordinate encoding (BLOB) and a SQLite-backed point Store
package point
