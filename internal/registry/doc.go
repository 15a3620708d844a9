// Package registry is the injected lookup table of well-known graph node
// types, callable functions and parent classes used when compiling node
// graphs and resolving record references.
//
// A Registry is assembled with a Builder and handed explicitly to the graph
// compiler and the resolver; there is no process-wide mutable table. The
// well-known entries are materialized lazily on first lookup, guarded by an
// explicit initialization state rather than a package-level sync.Once, so
// each Registry instance is independent and safe to construct in tests.
//
// Extra definitions can be supplied from HCL files (see LoadDefinitions), which
// lets a project describe its own functions and classes without recompiling.
package registry
