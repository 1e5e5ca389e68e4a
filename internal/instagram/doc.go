// Package instagram is a small client for the Instagram REST API.
//
// Every response is wrapped in an envelope of data, meta and pagination.
// Request decodes data into a typed value, RawRequest keeps it as an
// ordered Value tree, and RawJSON returns the whole body. The Async forms
// run on their own goroutine and deliver callbacks through the client's
// dispatcher so completions never run concurrently with each other.
package instagram
