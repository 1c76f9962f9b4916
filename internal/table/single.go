package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/neocortex/glassnode-api/internal/api"
)

// pathColumn derives a value column name from the metric path: the last path
// segment, or "value" when the path has no separator.
func pathColumn(path string) string {
	if !strings.Contains(path, "/") {
		return "value"
	}
	trimmed := strings.Trim(path, "/")
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

// FromSingle converts a single-series metric payload into a Table. JSON
// payloads must be a sequence of {t,v} or {t,o:{...}} records; text payloads
// are parsed as a header-plus-rows grid with a required t/timestamp column.
// An empty payload yields an empty table.
func FromSingle(p *api.Payload, path string) (*Table, error) {
	if p == nil {
		return newBuilder().build(), nil
	}

	if p.IsText {
		return fromCSV(p.Text, path)
	}

	trimmed := strings.TrimSpace(string(p.JSON))
	if trimmed == "" || trimmed == "null" {
		return newBuilder().build(), nil
	}

	var points []api.SinglePoint
	if err := json.Unmarshal(p.JSON, &points); err != nil {
		return nil, fmt.Errorf("%w: single-series payload for %s is not a record sequence", ErrFormat, path)
	}
	if len(points) == 0 {
		return newBuilder().build(), nil
	}

	first := points[0]
	if first.Malformed {
		return nil, fmt.Errorf("%w: single-series record for %s has no timestamp", ErrFormat, path)
	}

	switch {
	case first.HasV:
		return fromStandardPoints(points, path)
	case first.HasO:
		return fromNestedPoints(points), nil
	}
	return nil, fmt.Errorf("%w: single-series record for %s has neither v nor o", ErrFormat, path)
}

// fromStandardPoints handles [{t, v}, ...]: one value column named from the
// metric path. A record without v makes the sequence inconsistent.
func fromStandardPoints(points []api.SinglePoint, path string) (*Table, error) {
	col := pathColumn(path)
	b := newBuilder()
	b.addColumns(col)

	for _, p := range points {
		if p.Malformed || !p.HasV {
			return nil, fmt.Errorf("%w: inconsistent record sequence, missing v", ErrFormat)
		}
		b.set(p.T, col, p.V)
	}
	return b.build(), nil
}

// fromNestedPoints handles [{t, o:{...}}, ...]: the o keys become columns
// directly. Malformed records are skipped with a warning. Columns are
// ordered lexicographically for determinism.
func fromNestedPoints(points []api.SinglePoint) *Table {
	cols := make(map[string]struct{})
	for _, p := range points {
		if p.Malformed || !p.HasO {
			continue
		}
		for k := range p.O {
			cols[k] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(cols))
	for k := range cols {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	b := newBuilder()
	b.addColumns(ordered...)

	for _, p := range points {
		if p.Malformed || !p.HasO {
			slog.Warn("skipping malformed nested record", "t", p.T)
			continue
		}
		b.touch(p.T)
		for k, v := range p.O {
			b.set(p.T, k, v)
		}
	}
	return b.build()
}

// fromCSV parses delimited text with a header row. The t (or timestamp)
// column becomes the index, accepting epoch seconds or parseable date
// strings. A single data column is renamed from the metric path; multiple
// data columns are preserved as-is.
func fromCSV(text, path string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse delimited text: %v", ErrFormat, err)
	}
	if len(rows) == 0 {
		return newBuilder().build(), nil
	}

	header := rows[0]
	timeCol := -1
	for i, h := range header {
		if h == "t" || h == "timestamp" {
			timeCol = i
			break
		}
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("%w: delimited text is missing a t/timestamp column", ErrFormat)
	}

	dataCols := make([]int, 0, len(header)-1)
	names := make([]string, 0, len(header)-1)
	for i, h := range header {
		if i == timeCol {
			continue
		}
		dataCols = append(dataCols, i)
		names = append(names, h)
	}
	if len(names) == 1 {
		names[0] = pathColumn(path)
	}

	b := newBuilder()
	b.addColumns(names...)

	for _, row := range rows[1:] {
		if timeCol >= len(row) {
			slog.Warn("skipping short delimited row", "fields", len(row))
			continue
		}
		ts, err := api.ResolveTimestamp(row[timeCol])
		if err != nil {
			return nil, fmt.Errorf("%w: parse timestamp %q: %v", ErrFormat, row[timeCol], err)
		}

		b.touch(ts)
		for j, i := range dataCols {
			if i >= len(row) || row[i] == "" {
				continue
			}
			f, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				slog.Warn("skipping non-numeric cell", "column", names[j], "value", row[i])
				continue
			}
			v := f
			b.set(ts, names[j], &v)
		}
	}

	return b.build(), nil
}
