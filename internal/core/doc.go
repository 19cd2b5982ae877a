// Package core runs spreadsheet-to-producer-record conversions.
//
// This package ties the pipeline together independent of any transport. It
// is used by the web server and by the convert CLI without modification.
//
// # Pipeline
//
// A call to [Service.Convert] goes through these stages:
//
//  1. A slot is taken from the [ConversionLimiter]
//  2. A private workspace is allocated for the run
//  3. The requested worksheet is read (or the default sheet when no name is given)
//  4. The Individual and Firm passes each transform the rows, write one JSON
//     file per record and zip the files into output<Agents|Agencies>_MM-DD-YYYY.zip
//  5. Intermediate folders are removed; the archives stay until the janitor
//     purges the run
//  6. The run is recorded in metrics and, when enabled, conversion history
//
// Sheet, row and packaging errors abort the run and remove its workspace.
// A record file that cannot be written is skipped and counted instead.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - SHEET001, ROW001: input sheet problems
//   - PKG001: archive creation failed
//   - FILE001-FILE006: upload and download file problems
//   - UPL001-UPL005: service busy, cancelled or timed out
//   - HIST001: history requested without a database
//
// # Background Work
//
// [Service.StartJanitor] purges expired workspaces. [Service.Shutdown]
// refuses new conversions and waits for running ones to drain.
package core
