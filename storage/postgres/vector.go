package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/vecfill/core"
)

// formatVector renders v as a pgvector literal: [1,2.5,-3].
func formatVector(v core.Vector) string {
	var b strings.Builder
	b.Grow(len(v) * 12)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector parses a pgvector literal.
func parseVector(s string) (core.Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("%w: malformed vector literal %q", core.ErrInvalidVector, s)
	}
	body := s[1 : len(s)-1]
	if strings.TrimSpace(body) == "" {
		return core.Vector{}, nil
	}
	fields := strings.Split(body, ",")
	v := make(core.Vector, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", core.ErrInvalidVector, i, err)
		}
		v[i] = float32(x)
	}
	return v, nil
}
