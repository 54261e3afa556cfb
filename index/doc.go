// Package index defines the exact nearest-neighbor index contract and
// resolves index kinds to implementations: brute force (full sort or
// partial heap selection), cover tree and vantage-point tree.
package index
