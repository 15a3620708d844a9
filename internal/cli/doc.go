// Package cli parses command-line arguments into the application's
// configuration and maps run errors onto process exit codes: 0 for a clean
// run, 1 when records failed or verification found errors, 2 for usage and
// manifest parse errors.
package cli
