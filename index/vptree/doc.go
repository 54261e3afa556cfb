// Package vptree provides a vantage-point tree index. Each node splits its
// subtree at the median distance to the vantage point; queries prune with
// the triangle inequality and return the brute-force ordering exactly.
package vptree
