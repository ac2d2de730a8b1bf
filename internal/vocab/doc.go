// Package vocab provides the data model of the living ontology.
//
// This package contains type definitions only. Every other internal package
// imports vocab; vocab imports nothing internal.
//
// Key design constraints:
//   - Sections and categories are ordered slices, never bare maps, so that
//     iteration (validation, rendering, listing) is deterministic
//   - A category is identified by its dotted key, unique within its section
//   - All JSON tags use snake_case
package vocab
