package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/search"
	"github.com/urfave/cli/v2"
)

const prompt = "Enter a query for the email DB (or type 'quit' to exit): "

type replState int

const (
	awaitingInput replState = iota
	embedding
	querying
	exited
)

func (s replState) String() string {
	switch s {
	case awaitingInput:
		return "awaiting-input"
	case embedding:
		return "embedding"
	case querying:
		return "querying"
	case exited:
		return "exited"
	default:
		return fmt.Sprintf("replState(%d)", int(s))
	}
}

// querier runs one similarity query, reporting progress to monitor.
type querier interface {
	SearchWithMonitor(ctx context.Context, query string, monitor search.SearchMonitor) ([]*core.SimilarityHit, error)
}

// repl reads queries line by line until "quit", end of input or
// cancellation. It moves awaitingInput -> embedding -> querying ->
// awaitingInput, and to exited from awaitingInput. A failed query goes back
// to awaitingInput.
type repl struct {
	searcher querier
	in       *bufio.Scanner
	lines    chan string // fed by readLines, closed at end of input
	done     chan struct{}
	out      io.Writer
	state    replState
	query    string

	embedTime time.Duration
	queryTime time.Duration
}

func newREPL(searcher querier, in io.Reader, out io.Writer) *repl {
	return &repl{
		searcher: searcher,
		in:       bufio.NewScanner(in),
		done:     make(chan struct{}),
		out:      out,
		state:    awaitingInput,
	}
}

// Run drives the loop until it exits or ctx is done. A pending read of the
// input does not hold it up.
func (r *repl) Run(ctx context.Context) error {
	defer close(r.done)
	for r.state != exited {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.step(ctx)
	}
	return nil
}

func (r *repl) step(ctx context.Context) {
	switch r.state {
	case awaitingInput:
		fmt.Fprint(r.out, prompt)
		line, ok := r.nextLine(ctx)
		if ctx.Err() != nil {
			fmt.Fprintln(r.out)
			return
		}
		if !ok {
			fmt.Fprintln(r.out)
			r.state = exited
			return
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.EqualFold(line, "quit"):
			r.state = exited
		case line == "":
		default:
			r.query = line
			r.state = embedding
		}

	case embedding, querying:
		hits, err := r.searcher.SearchWithMonitor(ctx, r.query, r)
		if err != nil {
			fmt.Fprintf(r.out, "An error occurred: %v\n", err)
		} else {
			fmt.Fprintf(r.out, "\nResults for '%s':\n", r.query)
			fmt.Fprintln(r.out, resultsTable(hits))
			fmt.Fprintln(r.out, benchmarkTable(r.embedTime, r.queryTime))
		}
		r.state = awaitingInput
	}
}

// nextLine waits for the next input line or for ctx. It reports false once
// the input is exhausted.
func (r *repl) nextLine(ctx context.Context) (string, bool) {
	if r.lines == nil {
		r.lines = make(chan string)
		go r.readLines()
	}
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-r.lines:
		return line, ok
	}
}

func (r *repl) readLines() {
	defer close(r.lines)
	for r.in.Scan() {
		select {
		case r.lines <- r.in.Text():
		case <-r.done:
			return
		}
	}
}

// The repl is its own search monitor: the stage hooks drive the state
// transitions and collect the timings for the benchmark table.

func (r *repl) Start(string) {
	r.state = embedding
	r.embedTime, r.queryTime = 0, 0
}

func (r *repl) AfterEmbedding(v core.Vector, elapsed time.Duration) {
	r.embedTime = elapsed
	fmt.Fprintf(r.out, "Embedding: %s\n", v.Preview())
	r.state = querying
}

func (r *repl) AfterNeighborQuery(_ []core.Neighbor, elapsed time.Duration) {
	r.queryTime = elapsed
}

func (r *repl) AfterDeduplicate([]core.Neighbor) {}

func (r *repl) Finish([]*core.SimilarityHit) {}

func queryCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher(nil)
	if err != nil {
		return err
	}

	err = newREPL(searcher, os.Stdin, os.Stdout).Run(c.Context)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
