// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest parses the generator manifest into a Model.
//
// # Format
//
// The manifest is a line-oriented, indentation-scoped text format. It has
// top-level scalars ("project_root: Content/Game"), comments starting with
// '#', and sections introduced by a header line ("gameplay_abilities:")
// whose members are indented "- name: X" items. Inside an item, plain
// "key: value" lines set scalar fields and empty "key:" lines open nested
// sub-sections (lists, lists of objects, groups of lists, inline node graphs
// or numeric pairs). Indentation is the only scoping signal.
//
// # Structure
//
//   - lexer.go: splits text into Lines and classifies them.
//   - grammar.go: the per-kind sub-section shapes and the section-name
//     dispatch table, including suffix aliases such as "<anything>_tags:".
//   - state.go: the SubState enum and its transition table.
//   - section.go: the record section parser driven by a Grammar.
//   - graph.go: the node/connection sub-parser shared by inline event graphs
//     and the standalone event_graphs section.
//   - tags.go: the gameplay tag list section.
//   - parser.go: the top-level driver.
//
// # Item boundaries
//
// A section parser tracks two indents independently: the item indent, set by
// the first "- name:" of the section, and the indent of the currently open
// sub-section. Only a "- name:" at or above the item indent starts a new
// record; a "- name:" inside a sub-section (even one written at the
// sub-section key's own indent) belongs to that sub-section.
//
// Records whose name does not carry the prefix required by their kind are
// dropped without error. This protects against a mis-detected section
// boundary turning unrelated lines into records; the drop is logged at debug
// level.
package manifest
