// Package report renders the outcome of a generation run: the one-line
// summary, the styled summary block, the dry-run preview and the JSON
// report file.
//
// # Summary line
//
// SummaryLine always has the same shape so scripts can grep for it:
//
//	RESULT: New=3 Skipped=10 Failed=0 Deferred=0 Total=13
//
// # JSON report
//
// Build collects one Item per result together with the run identity (a
// random RunID, the manifest hash and the generator version). Write stores
// it atomically as gasgen_report_<runid>.json.
package report
