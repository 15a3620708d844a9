// Package app wires a generation run together: it owns the logger, the node
// registry, the content store and the metadata side registry, and drives the
// stages of Run in order.
package app
