package main

import (
	"context"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/poiesic/vecfill"
	"github.com/poiesic/vecfill/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const seedBatchSize = 100

// seedFile is the YAML layout accepted by the seed command.
type seedFile struct {
	Records []seedRecord `yaml:"records"`
}

type seedRecord struct {
	ID        string    `yaml:"id"`
	Subject   string    `yaml:"subject"`
	Date      time.Time `yaml:"date"`
	Content   string    `yaml:"content"`
	Embedding []float32 `yaml:"embedding,omitempty"`
}

func (r seedRecord) record() *core.Record {
	rec := &core.Record{
		ID:      core.ID(r.ID),
		Subject: r.Subject,
		Date:    r.Date,
		Content: r.Content,
	}
	if len(r.Embedding) > 0 {
		rec.Embedding = core.Vector(r.Embedding)
	}
	return rec
}

// loadSeedFile parses a fixture file and returns an iterator over its records.
func loadSeedFile(filename string) (iter.Seq[*core.Record], int, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, 0, err
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", filename, err)
	}
	for i, r := range f.Records {
		if r.ID == "" {
			return nil, 0, fmt.Errorf("parse %s: record %d has no id", filename, i)
		}
	}

	return func(yield func(*core.Record) bool) {
		for _, r := range f.Records {
			if !yield(r.record()) {
				return
			}
		}
	}, len(f.Records), nil
}

// seedBatched reads records from source and stores them in batches.
func seedBatched(ctx context.Context, db *vecfill.Database, source iter.Seq[*core.Record], batchSize int) error {
	batch := make([]*core.Record, 0, batchSize)

	for record := range source {
		batch = append(batch, record)
		if len(batch) == batchSize {
			if err := db.Seed(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	// Store any remaining records
	if len(batch) > 0 {
		if err := db.Seed(ctx, batch...); err != nil {
			return err
		}
	}

	return nil
}

func seedCommand(c *cli.Context) error {
	source, count, err := loadSeedFile(c.String("file"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := seedBatched(c.Context, db, source, seedBatchSize); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded %d records\n", count)
	return nil
}
