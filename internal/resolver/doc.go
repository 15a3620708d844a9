// Package resolver turns the records of a parsed manifest into artifacts in
// a content store.
//
// # Flow
//
// Pipeline.Run walks kinds in phase order and records in declaration order.
// For each record it runs the kind's generator, classifies the result with
// the change-detection engine and, unless this is a dry run, writes the
// artifact and its metadata.
//
// # Dependencies
//
// Generators discover dependencies lazily while they run: a reference to
// another record (a cooldown effect, a parent blueprint, a blackboard) is
// checked at the moment the generator needs it. A reference that is neither
// generated in this run nor present in the store stops the generator with a
// *MissingDependencyError. That error, and only that error, defers the
// record. Every other error fails it.
//
// # Deferred retry
//
// Deferred records go to the Scheduler, which makes bounded passes over them
// after the main walk. An entry whose dependency has since been satisfied is
// generated again. A pass that resolves nothing, or reaching the pass limit,
// ends the loop and everything still waiting fails with
// E_DEPENDENCY_UNRESOLVED.
//
// # Session
//
// A Session holds per-run memo state: the set of records generated so far,
// resolved parent classes and compiled event graphs. It is reset at the
// start of every run so nothing leaks between runs.
package resolver
