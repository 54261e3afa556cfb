// Package cover provides a cover-tree index adapter. The tree is built once
// from the point set and answers exact kNN queries with the same ordering
// as the brute-force reference.
package cover
