// Package document holds the in-memory model of a tabular document: an
// ordered list of sheets, each a grid of typed cells. It is independent of
// any file format; readers and writers live in their own packages.
package document
