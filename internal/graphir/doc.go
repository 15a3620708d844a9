// Package graphir turns the flat node and connection declarations found in a
// manifest into a resolved, validated node graph.
//
// # Stages
//
//   - Decl: the raw declaration as parsed. Node property bags are flat; nested
//     "parameters:" blocks have already been flattened into "param.<key>"
//     entries by the manifest parser.
//   - Compile: builds the ID-keyed node table, resolves every node's pin set
//     through an injected *registry.Registry and resolves every connection to
//     a concrete pin pair. Any dangling node, unknown pin or duplicate ID makes
//     Compile return a nil graph; a partially wired graph is never produced.
//   - Layout: assigns each node a layer (longest path from a root) and an
//     in-layer order chosen to reduce edge crossings. Layout never changes the
//     wiring and can be run, or skipped, independently of Compile.
//
// Dialogue trees are validated separately by CheckDialogue, which walks the
// tree depth-first with a visited set copied per path so converging branches
// are not mistaken for cycles.
package graphir
