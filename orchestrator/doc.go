// Package orchestrator plans and executes batches of capability calls
// ("tasks") that may depend on one another's outputs.
//
// A submission is a flat list of Task descriptors. The Planner layers them
// into batches: every batch runs concurrently, and batch N+1 starts only
// after every task of batch N has resolved. Map-shaped outputs of a task's
// dependencies are merged into its inputs, with the task's own params
// winning on collision.
//
// Three behaviors go beyond plain topological layering:
//   - Fast path: configured names run in batch 0 regardless of their
//     declared dependencies.
//   - Cycle breaking: when nothing is ready, the task with the fewest
//     unmet dependencies runs alone in its own batch and a warning is
//     logged. Planning never fails.
//   - Per-task deadlines: every task gets the full timeout, so one slow
//     task never discards its siblings' results.
//
// Execute never returns an error. Each submitted name gets exactly one
// entry in Result.Values, either the capability's output or a *TaskError.
//
//	orch := orchestrator.New(registry)
//	res := orch.Execute(ctx, []orchestrator.Task{
//	    {Name: "weather.lookup", Params: map[string]any{"city": "Oslo"}},
//	    {Name: "navigation.navigate", DependsOn: []string{"weather.lookup"}},
//	}, 10*time.Second)
package orchestrator
