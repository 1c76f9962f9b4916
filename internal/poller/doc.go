// Package poller implements the metric polling loop.
//
// The poller:
//   - Fetches each configured metric from the bulk endpoint every interval
//   - Flattens responses into long-form observation records
//   - Hands records to a handler (normally the database writer)
//   - Bounds concurrent fetches; one failing metric never stops the cycle
package poller
