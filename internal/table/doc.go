// Package table reshapes Glassnode metric payloads into rectangular tables.
//
// Single-series responses (JSON records or CSV text) become one Table indexed
// by time. Bulk responses are flattened into long-form records first, then
// pivoted into one of three layouts: a wide table with one column per series,
// or a mapping keyed by asset or by series key with sub-tables over the other
// dimension.
package table
