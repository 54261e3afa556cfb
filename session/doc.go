// Package session turns user events on a point cloud view into neighbor
// queries and render-ready views.
//
// A Session holds the current selection and K. OnPointSelected and
// OnKChanged run a query and hand a complete View to the render callback;
// the caller only draws it. Large sets are queried asynchronously and
// replies that arrive after a newer one has been applied are discarded.
package session
