// Package workflow models a workflow's control flow as a tree of entities and
// lowers that tree into the flat, edge-labeled node graph an Oozie
// workflow-app is made of.
//
// Callers build entities through a Builder, which allocates identifiers from
// an injectable TokenSource. Validate rejects duplicate identifiers and
// undeclared credentials; Compile then walks the tree once, passing each
// entity the identifiers it continues to on success and on failure:
//
//	b := workflow.NewBuilder(nil)
//	notify, _ := b.Task(email)
//	kill, _ := b.Kill("failed")
//	handler, _ := b.Sequence([]workflow.Entity{notify, kill})
//	job, _ := b.Task(shell, workflow.WithOnError(handler))
//	if err := workflow.Validate(job, nil); err != nil { ... }
//	nodes := workflow.Compile(job, workflow.EndNode, "")
//
// A failure with no handler anywhere in its ancestry continues to the same
// place success would.
//
// Empty sequences emit nothing and resolve to whatever follows them. As a
// Parallel branch that makes the fork path start at the Parallel's own join.
// Oozie refuses to run a fork/join pair shaped that way, so callers that want
// a runnable document should not leave branches empty; EmptyBranches reports
// them.
package workflow
