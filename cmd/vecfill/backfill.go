package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/vecfill/backfill"
	"github.com/poiesic/vecfill/core"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
)

//lint:ignore ST1005 printed verbatim to users
var errInstancesRequired = errors.New("Instance number and total number of instances are required.")

func backfillConfig(c *cli.Context) (*backfill.Config, error) {
	partition, err := core.ParsePartitionStrategy(c.String("partition"))
	if err != nil {
		return nil, err
	}

	cfg := backfill.DefaultConfig()
	cfg.PageSize = c.Int("page-size")
	cfg.Partition = partition
	cfg.RowDelay = c.Duration("row-delay")
	cfg.Dimensions = c.Int("dimensions")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func backfillCommand(c *cli.Context) error {
	if !c.IsSet("instance") || !c.IsSet("total-instances") {
		return errInstancesRequired
	}
	instance, total := c.Int("instance"), c.Int("total-instances")
	if err := (core.Shard{Index: instance, Total: total}).Validate(); err != nil {
		return err
	}

	cfg, err := backfillConfig(c)
	if err != nil {
		return err
	}

	var schedule cron.Schedule
	if spec := c.String("schedule"); spec != "" {
		if schedule, err = cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", spec, err)
		}
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	worker, err := db.NewWorker(cfg, backfill.WithOutput(os.Stdout), backfill.WithProgress(os.Stderr))
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		stats, err := worker.Run(ctx, instance, total)
		if stats != nil {
			printStats(stats)
		}
		return err
	}

	if schedule == nil {
		return run(c.Context)
	}
	return runScheduled(c.Context, schedule, run)
}

func backfillAllCommand(c *cli.Context) error {
	total := c.Int("total-instances")
	if total < 1 {
		return errInstancesRequired
	}

	cfg, err := backfillConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fleet, err := db.NewFleet(cfg, backfill.WithOutput(os.Stdout), backfill.WithProgress(os.Stderr))
	if err != nil {
		return err
	}

	stats, err := fleet.Run(c.Context, total)
	for _, s := range stats {
		if s != nil {
			printStats(s)
		}
	}
	return err
}

// runScheduled runs once right away and then on every activation of
// schedule until ctx is done. An activation is skipped while the previous
// run is still going.
func runScheduled(ctx context.Context, schedule cron.Schedule, run func(context.Context) error) error {
	logger := slog.Default().With("component", "scheduler")

	if err := run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("backfill failed", "err", err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		if err := run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("backfill failed", "err", err)
		}
	}))
	c.Start()
	logger.Info("waiting for next run", "next", schedule.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func printStats(s *backfill.Stats) {
	fmt.Fprintf(os.Stderr, "instance %d/%d: %d rounds, %d updated, %d failed in %s\n",
		s.Instance, s.Total, s.Rounds, s.Updated, s.Failed, s.Elapsed.Round(time.Millisecond))
}
