package core

import (
	"strconv"
	"strings"
)

// previewEdge is the number of leading and trailing elements shown by Preview.
const previewEdge = 5

// Preview renders the vector for humans. Vectors longer than ten elements
// show only their first and last five: [a, b, c, d, e] ... [v, w, x, y, z].
func (v Vector) Preview() string {
	if len(v) > 2*previewEdge {
		return formatElements(v[:previewEdge]) + " ... " + formatElements(v[len(v)-previewEdge:])
	}
	return formatElements(v)
}

func formatElements(v Vector) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
