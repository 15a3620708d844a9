// Package changedetect decides, per record, whether a run should create,
// modify, skip or refuse to touch an artifact.
//
// # Hashes
//
// Two 64-bit xxhash values drive every decision:
//
//   - InputHash covers the canonical encoding of the manifest record plus the
//     generator version, so a record with the same content always hashes the
//     same no matter how it was formatted in the manifest.
//   - OutputHash covers the observable fields of the artifact as written.
//
// Both are stored in the artifact's metadata when it is generated. On the
// next run the stored pair is compared with the current pair.
//
// # Decisions
//
//	no artifact                       -> Create
//	artifact without metadata         -> Skip (manual asset, never touched)
//	input same,    output same        -> Skip
//	input changed, output same        -> Modify
//	input changed, output changed     -> Conflict
//	input same,    output changed     -> Skip (manual edit preserved)
//
// Force mode only changes whether a decision proceeds, never the reported
// action, and it never overrides an artifact without metadata.
package changedetect
