// Package backfill fills in the embedding column of pending rows.
//
// Several instances can work on the same table without coordinating: each
// is started with its index and the total number of instances and reads only
// its own windows of the pending rows (see Scanner). Within an instance rows
// are processed one at a time, embed then write, with a minimum interval
// between rows.
//
// A row that fails is reported and left pending for the next run. Delivery is
// at least once; writing the same embedding twice is harmless.
//
// # Usage
//
//	worker, err := backfill.NewWorker(connector, client, backfill.DefaultConfig(),
//	    backfill.WithOutput(os.Stdout),
//	    backfill.WithProgress(os.Stderr),
//	)
//	stats, err := worker.Run(ctx, instance, total)
//
// To run every instance in one process:
//
//	fleet, err := backfill.NewFleet(worker)
//	stats, err := fleet.Run(ctx, total)
package backfill
