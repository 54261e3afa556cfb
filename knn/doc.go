// Package knn is the nearest-neighbor query engine. Given a fixed point set,
// a query point id and k, it returns the k closest other points ordered by
// Euclidean distance with ascending-id tie-break.
//
// NearestNeighbors is the stateless reference; Finder wraps a prebuilt
// index with a configurable self-exclusion policy; Dispatcher runs queries
// off the caller's goroutine and drops results superseded by newer ones.
package knn
