// Package testdoubles provides spies for the observability interfaces of the eventstore package.
// They record every call so tests can assert on logs, metrics and spans.
package testdoubles
