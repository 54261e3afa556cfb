// Package bruteforce provides the reference nearest-neighbor index: it
// scores every point, rejects non-finite distances, and ranks by distance
// with ascending-id tie-break. Other index kinds are tested against it.
package bruteforce
