// Package ir is the typed intermediate representation produced by the binder
// and rewritten by the optimizer.
//
// The node set is closed: Stmt and Expr are sealed interfaces and every
// variant exposes a Kind for dispatch. Every Expr carries its resolved type
// as an explicit field. Variables are value copies of scope symbols; IR
// never points back into a live scope chain.
//
// Besides the node model this package provides a deterministic text dump
// (Print), RFC 8785 canonical JSON (Encode, MarshalCanonical) and
// domain-separated content hashes (Fingerprint, SourceHash).
//
// Key design constraints:
//   - ir imports only types, scope and diag; nothing internal imports ir
//     cyclically
//   - No float values in canonical JSON; float literals encode as strings
//   - All JSON keys use snake_case
package ir
