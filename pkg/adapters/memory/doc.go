// Package memory provides in-memory implementations of the fluxo ports.
//
// They are safe for concurrent use and intended for tests, the simulate
// command and single-process embedding.
package memory
