// Package aggregates owns the transaction boundary for writes that must keep
// the relational tables and the graph in step, and maps storage failures to
// domain error codes.
package aggregates
