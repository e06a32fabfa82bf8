// Package tasks runs long catalog operations with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes many albums or playlists of one provider to
// disk. Collections are fetched by a single producer through a rate limiter
// and written by a bounded worker pool. Failures are recorded per
// collection and never abort the batch; an export_manifest.json summarizing
// every result is written last.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use
// select with default, so a slow or absent reader never blocks an export.
package tasks
