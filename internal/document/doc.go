// Package document reads and writes a project's buildstate: the paired
// structured (buildstate.json) and narrative (buildstate.md) documents.
//
// # Layout
//
//	<project>/
//	  buildstate.json          structured document
//	  buildstate.md            narrative document
//	  .scf/
//	    archive/               full backups, never pruned
//	      buildstate-20261019T101530Z.json
//	      buildstate-20261019T101530Z.md
//	    rebalance.lock         advisory lock held during a rebalance
//
// # Structured Document
//
// A JSON object. Top-level keys are content items except reserved ones:
// anything starting with an underscore (_session_state, _scf_metadata), the
// domain arrays (decisions, features, next_steps, bugs) and change_log.
// Edits go through sjson so untouched keys keep their order and values.
//
// # Narrative Document
//
// Markdown split on level-two headings. Text before the first "## " heading
// is the preamble. Deeper headings stay inside their section, and headings in
// fenced code blocks are ignored. Rendering a parsed document reproduces it
// byte for byte. The "Change Log" section is reserved.
//
// # Writes
//
// Every write goes to a temp file which is synced and renamed over the
// target, so a crash leaves either the old or the new document.
package document
