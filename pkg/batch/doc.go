// Package batch plans and runs fault-injection tasks over netlist files.
//
// A task pairs a source netlist with a fault vector and an output path.
// Tasks are planned in one of three ways:
//
//   - Single: one vector, one output file
//   - Expand: a list of (count, vector, start) items against one source
//   - Random: a number of tasks drawing source and vector from a seeded
//     generator
//
// A Runner executes the plan. Task i uses seed master+i, so any output can
// be reproduced from the master seed recorded in its header.
//
//	cfg := batch.DefaultConfig()
//	cfg.Workers = 4
//	runner, err := batch.NewRunner(cfg)
//
//	tasks := batch.Expand("amp.scs", "results", []batch.Item{{Count: 10, Vector: 0x0005}})
//	summary, err := runner.Run(ctx, tasks, 42, nil)
//	fmt.Printf("Completed %d/%d tasks.\n", summary.Succeeded(), len(tasks))
//
// A task that fails is logged and counted; it never stops the run.
package batch
