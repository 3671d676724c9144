/*
Package operation implements the edit primitives and the runner that applies them.

	+-------------+      +-------------+      +-------------+
	|   config    | ---> |    Build    | ---> |  Operation  |
	|  (raw ops)  |      | (typed ops) |      |   handlers  |
	+-------------+      +-------------+      +------+------+
	                                                 |
	+-------------+      +-------------+      +------+------+
	|   status    | <--- |   Runner    | <--- |    Apply    |
	| (atomic io) |      | (diff/write)|      | (in order)  |
	+-------------+      +-------------+      +-------------+

🎯 Purpose:
- Turns a declarative list of edits into new file text
- Enforces how many times every anchor or declaration may match
- Decides per file whether to print a diff and whether to write

🔄 Flow:
1. Build checks each raw op carries exactly its kind's fields
2. The runner reads each file once and keeps its text in memory
3. Apply runs the file's ops in order, each on the previous result
4. A changed file gets a unified diff and, outside check/dry-run, one atomic write

⚡ Operation kinds:
  - insert_after, insert_before, replace_once: one anchor, exactly one match
  - replace_block, replace_or_insert_block: start/end delimited regions
  - ensure_import: scans for an existing import before adding one
  - upsert_def, upsert_class, upsert_method: structural, through pkg/locate

Every kind accepts skip_if_contains; when its text is already present the
operation is a no-op.

🔍 Example:

	runner, err := operation.NewRunner(operation.Options{
		Out:      os.Stdout,
		Files:    status.New("."),
		Locators: locate.NewRegistry(python.New()),
	})
	report, err := runner.Run(ctx, spec)

A failure stops the whole run. Files written before it stay written; the
returned Report says which.
*/
package operation
