// Package harness runs ontology scenarios as executable contract tests.
//
// A scenario describes the wiki pages and cached vocabulary a run starts
// from, a flow of engine operations with expected outcomes, and assertions
// on the final cache, wiki and sync log. Every scenario runs against a fresh
// in-memory store and wiki source with a deterministic clock and run IDs, so
// its trace can be compared against a golden file.
//
// # Scenario Format
//
//	name: add_term_after_review
//	description: "An approved term lands in the cache and on the page"
//	pages:
//	  System: |
//	    # System
//	    ...
//	vocabulary:
//	  System:
//	    system.domain:
//	      description: "Scientific domain"
//	      values: [experimental, computational]
//	flow:
//	  - op: propose
//	    as: carol
//	    type: add_term
//	    section: System
//	    category: system.domain
//	    term: hybrid
//	  - op: review
//	    as: alice
//	    id: 1
//	    decision: approved
//	  - op: apply
//	    id: 1
//	    expect: { ok: true, published: true }
//	  - op: validate
//	    record: { system: { domain: theoretical } }
//	    expect:
//	      violations:
//	        - path: system.domain
//	assertions:
//	  - type: category_values
//	    section: System
//	    category: system.domain
//	    values: [experimental, computational, hybrid]
//
// # Operations
//
//   - sync: SyncFromWiki as the step user
//   - propose: CreateProposal; rule violations are failed steps, not errors
//   - review: ReviewProposal with decision approved or rejected
//   - apply: ApplyProposal with optional prose
//   - validate: ValidateRecord against the cached vocabulary
//
// # Assertion Types
//
//   - category_values: a cached category has exactly the given values
//   - category_absent: a category is not in the cache
//   - page_contains: a wiki page contains the given text
//   - sync_status: the newest sync log entry has the given status and trigger
//   - commit_count: the wiki received exactly N commits
package harness
