// Package shell connects the restaurant domain to the event store: the wire codec, the repositories,
// retrying on concurrency conflicts, and the wiring of aggregate, views and dispatcher.
package shell
