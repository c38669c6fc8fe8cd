// Package processor contains the core business logic of sheettrans. It reads
// a workbook, extracts the translation units, serves what it can from the
// translation cache, dispatches the rest to the backend, assembles the
// translated workbooks and writes the run summary. This package serves as
// the main coordinator between all other components.
package processor
