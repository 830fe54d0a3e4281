// Package parser ingests fixed-column strong-motion record headers. A line
// map describes which field lives at which line and column span of a record;
// format-specific parsers turn the chunked text into typed values.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Window describes one fixed-column field: a 1-based line number and a
// 1-based inclusive column span.
type Window struct {
	Line        int    `json:"line"`
	ColumnStart int    `json:"column_start"`
	ColumnEnd   int    `json:"column_end"`
	Key         string `json:"short_description"`
}

// LineMap is the set of windows describing one record format.
type LineMap struct {
	SourceName string   `json:"source_name"`
	Windows    []Window `json:"lines"`
}

// ParseLineMap decodes and validates a JSON line map.
func ParseLineMap(data []byte) (LineMap, error) {
	var m LineMap
	if err := json.Unmarshal(data, &m); err != nil {
		return LineMap{}, fmt.Errorf("parse line map: %w", err)
	}
	if m.SourceName == "" {
		return LineMap{}, fmt.Errorf("line map has no source_name")
	}
	seen := make(map[string]bool, len(m.Windows))
	for _, w := range m.Windows {
		if w.Line < 1 {
			return LineMap{}, fmt.Errorf("line map %q: window %q references line %d", m.SourceName, w.Key, w.Line)
		}
		if w.ColumnStart < 1 || w.ColumnStart > w.ColumnEnd {
			return LineMap{}, fmt.Errorf("line map %q: window %q has invalid column span %d-%d",
				m.SourceName, w.Key, w.ColumnStart, w.ColumnEnd)
		}
		if w.Key == "" {
			return LineMap{}, fmt.Errorf("line map %q: window on line %d has no key", m.SourceName, w.Line)
		}
		if seen[w.Key] {
			return LineMap{}, fmt.Errorf("line map %q: duplicate window key %q", m.SourceName, w.Key)
		}
		seen[w.Key] = true
	}
	return m, nil
}

// Chunk applies the line map to record text, returning the raw field text by
// window key with trailing whitespace stripped. A record shorter than the
// map's highest line is an error; a line shorter than a window's column span
// yields whatever text the line carries.
func (m LineMap) Chunk(text string) (map[string]string, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	chunks := make(map[string]string, len(m.Windows))
	for _, w := range m.Windows {
		if w.Line > len(lines) {
			return nil, fmt.Errorf("record has %d lines, line map %q references line %d",
				len(lines), m.SourceName, w.Line)
		}
		line := lines[w.Line-1]
		start := w.ColumnStart - 1
		if start > len(line) {
			start = len(line)
		}
		end := w.ColumnEnd
		if end > len(line) {
			end = len(line)
		}
		chunks[w.Key] = strings.TrimRight(line[start:end], " \t\r")
	}
	return chunks, nil
}
