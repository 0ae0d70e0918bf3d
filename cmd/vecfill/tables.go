package main

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/poiesic/vecfill/core"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

const dateLayout = "2006-01-02 15:04:05"

// truncate shortens s to at most max runes, ending it with "..." when cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// resultsTable renders hits in rank order.
func resultsTable(hits []*core.SimilarityHit) string {
	t := newTable("No", "Message-ID", "Date", "Subject", "Content")
	for _, h := range hits {
		t.Row(
			strconv.Itoa(h.Rank),
			truncate(string(h.ID), 50),
			truncate(formatDate(h.Date), 20),
			truncate(h.Subject, 30),
			truncate(h.Content, 50),
		)
	}
	return t.String()
}

// benchmarkTable renders how long each stage of a query took.
func benchmarkTable(embedding, query time.Duration) string {
	return newTable("Task", "Time (s)").
		Row("Fetch Embedding", fmt.Sprintf("%.4f", embedding.Seconds())).
		Row("Database Query", fmt.Sprintf("%.4f", query.Seconds())).
		String()
}
