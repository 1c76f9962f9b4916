package api

import (
	"encoding/json"
	"sort"
	"strings"
)

// Payload is one API response body, decoded once at the transport boundary.
// Exactly one representation is set: JSON for application/json responses,
// Text for text/csv.
type Payload struct {
	JSON   json.RawMessage
	Text   string
	IsText bool
}

// SeriesRecord is one observation of one series at one instant. A series is
// identified by its tag set; the "a" (asset) tag is privileged and may be
// absent. Value is nil for an explicit null.
type SeriesRecord struct {
	Tags  map[string]string
	Value *float64

	// Malformed marks records whose wire shape had no usable value key.
	// They are skipped (with a warning) during flattening, not fatal.
	Malformed bool
}

// UnmarshalJSON decodes a bulk item of the form {"a":"BTC","c":"usd","v":1.5}.
// Every key except "v" is an identifying tag; tag values are normalized to
// their string form.
func (r *SeriesRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Tags = make(map[string]string, len(raw))
	r.Value = nil
	r.Malformed = true

	for k, rv := range raw {
		if k == "v" {
			var v *float64
			if err := json.Unmarshal(rv, &v); err != nil {
				// Non-numeric value: keep the record but flag it.
				continue
			}
			r.Value = v
			r.Malformed = false
			continue
		}
		r.Tags[k] = tagString(rv)
	}

	return nil
}

// MarshalJSON re-encodes the record in its wire shape.
func (r SeriesRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Tags)+1)
	for k, v := range r.Tags {
		m[k] = v
	}
	m["v"] = r.Value
	return json.Marshal(m)
}

// tagString renders a raw JSON tag value as its canonical string form.
// Numbers keep their literal representation.
func tagString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true"
		}
		return "false"
	}
	if string(raw) == "null" {
		return "None"
	}
	return string(raw)
}

// Asset returns the privileged "a" tag.
func (r SeriesRecord) Asset() (string, bool) {
	a, ok := r.Tags["a"]
	return a, ok
}

// SeriesKey derives the series identifier from the non-asset tags: sorted by
// tag name, each rendered as "name_value", joined with "_". With no such tags
// it falls back to the asset symbol, or "value" when the asset is absent too.
func (r SeriesRecord) SeriesKey() string {
	keys := make([]string, 0, len(r.Tags))
	for k := range r.Tags {
		if k != "a" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		if a, ok := r.Tags["a"]; ok {
			return a
		}
		return "value"
	}

	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "_" + r.Tags[k]
	}
	return strings.Join(parts, "_")
}

// tagKey is the record's merge identity: the full tag set in canonical order.
func (r SeriesRecord) tagKey() string {
	keys := make([]string, 0, len(r.Tags))
	for k := range r.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(r.Tags[k])
	}
	return sb.String()
}

// BulkEntry groups the series records observed at one instant.
type BulkEntry struct {
	T    int64          `json:"t"`
	Bulk []SeriesRecord `json:"bulk"`

	// Malformed marks entries whose wire shape had no usable timestamp or
	// whose bulk group was not a sequence.
	Malformed bool `json:"-"`
}

// UnmarshalJSON tolerates malformed entries instead of failing the whole
// page: they are flagged and skipped downstream.
func (e *BulkEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		T    *int64          `json:"t"`
		Bulk json.RawMessage `json:"bulk"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*e = BulkEntry{Malformed: true}
		return nil
	}
	if raw.T == nil {
		*e = BulkEntry{Malformed: true}
		return nil
	}

	e.T = *raw.T
	e.Malformed = false
	e.Bulk = nil
	if len(raw.Bulk) > 0 && string(raw.Bulk) != "null" {
		if err := json.Unmarshal(raw.Bulk, &e.Bulk); err != nil {
			*e = BulkEntry{T: *raw.T, Malformed: true}
			return nil
		}
	}
	return nil
}

// merge folds other's records into e. A record whose tag set already exists
// in e overwrites the earlier one in place; new tag sets are appended.
func (e *BulkEntry) merge(other BulkEntry) {
	index := make(map[string]int, len(e.Bulk))
	for i, rec := range e.Bulk {
		index[rec.tagKey()] = i
	}

	for _, rec := range other.Bulk {
		if i, ok := index[rec.tagKey()]; ok {
			e.Bulk[i] = rec
		} else {
			index[rec.tagKey()] = len(e.Bulk)
			e.Bulk = append(e.Bulk, rec)
		}
	}
}

// BulkResponse is a bulk endpoint payload: the data sequence plus every other
// top-level key carried verbatim as metadata.
type BulkResponse struct {
	Data []BulkEntry
	Meta map[string]json.RawMessage
}

// UnmarshalJSON splits the response into the data sequence and the metadata
// side-channel. A present-but-non-sequence data key is an error; an absent
// one means empty.
func (b *BulkResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Data = nil
	b.Meta = make(map[string]json.RawMessage, len(raw))

	for k, rv := range raw {
		if k != "data" {
			b.Meta[k] = rv
			continue
		}
		if string(rv) == "null" {
			continue
		}
		if err := json.Unmarshal(rv, &b.Data); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON reassembles the wire shape: metadata keys plus data.
func (b BulkResponse) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Meta)+1)
	for k, v := range b.Meta {
		m[k] = v
	}
	m["data"] = b.Bulk()
	return json.Marshal(m)
}

// Bulk returns the data sequence, never nil.
func (b BulkResponse) Bulk() []BulkEntry {
	if b.Data == nil {
		return []BulkEntry{}
	}
	return b.Data
}

// Empty reports whether the response carries no data points.
func (b *BulkResponse) Empty() bool {
	return b == nil || len(b.Data) == 0
}

// SinglePoint is one element of a single-series metric response: either
// {"t":..,"v":..} or {"t":..,"o":{..}}.
type SinglePoint struct {
	T    int64
	V    *float64
	HasV bool
	O    map[string]*float64
	HasO bool

	// Malformed marks points with no usable timestamp.
	Malformed bool
}

// UnmarshalJSON decodes either single-point form without failing the page on
// individual malformed elements.
func (p *SinglePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		T *int64          `json:"t"`
		V json.RawMessage `json:"v"`
		O json.RawMessage `json:"o"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*p = SinglePoint{Malformed: true}
		return nil
	}
	if raw.T == nil {
		*p = SinglePoint{Malformed: true}
		return nil
	}

	*p = SinglePoint{T: *raw.T}

	if len(raw.V) > 0 {
		p.HasV = true
		if err := json.Unmarshal(raw.V, &p.V); err != nil {
			p.Malformed = true
		}
	}
	if len(raw.O) > 0 && string(raw.O) != "null" {
		if err := json.Unmarshal(raw.O, &p.O); err != nil {
			p.Malformed = true
		} else {
			p.HasO = true
		}
	}
	return nil
}
