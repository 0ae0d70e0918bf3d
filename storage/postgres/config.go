package postgres

import (
	"fmt"
	"strings"
)

// Config describes the connection and the table layout.
// Empty connection fields fall back to the PG* environment variables read by
// lib/pq.
type Config struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string

	Table           string
	IDColumn        string
	ContentColumn   string
	EmbeddingColumn string
	SubjectColumn   string
	DateColumn      string
}

// DefaultConfig returns the layout of the email table.
func DefaultConfig() *Config {
	return &Config{
		Table:           "email",
		IDColumn:        "Message-ID",
		ContentColumn:   "content",
		EmbeddingColumn: "embedding_ada2",
		SubjectColumn:   "Subject",
		DateColumn:      "Date",
	}
}

// DSN returns a key/value connection string for lib/pq.
func (c *Config) DSN() string {
	var parts []string
	add := func(key, value string) {
		if value == "" {
			return
		}
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, `'`, `\'`)
		parts = append(parts, fmt.Sprintf("%s='%s'", key, value))
	}
	add("host", c.Host)
	add("port", c.Port)
	add("dbname", c.Database)
	add("user", c.User)
	add("password", c.Password)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

// Validate checks that every table identifier is set.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"Table":           c.Table,
		"IDColumn":        c.IDColumn,
		"ContentColumn":   c.ContentColumn,
		"EmbeddingColumn": c.EmbeddingColumn,
		"SubjectColumn":   c.SubjectColumn,
		"DateColumn":      c.DateColumn,
	} {
		if value == "" {
			return fmt.Errorf("postgres config: %s is required", name)
		}
	}
	return nil
}
