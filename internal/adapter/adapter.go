// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapter binds the aggregation pipeline to external content
// sources. Each adapter wraps exactly one source and normalizes every
// failure into an *Error so the fan-out engine can isolate it.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Candidate is one raw record extracted from a source page, prior to
// scoring and filtering.
type Candidate struct {
	Title       string
	URL         string
	Description string
}

// Adapter fetches raw candidates from one external source. Fetch must
// return within the deadline of its context and must never panic; any
// failure is reported as an *Error.
type Adapter interface {
	// Name is the stable adapter identifier (e.g. "bing", "zhihu").
	Name() string

	// Priority orders adapters for dispatch; higher runs earlier.
	Priority() int

	// BusinessValue is the static commercial weight of the source.
	BusinessValue() int

	Fetch(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// ErrorKind classifies an adapter failure.
type ErrorKind int

const (
	// Timeout: the per-call deadline elapsed.
	Timeout ErrorKind = iota
	// RateLimited: the source answered HTTP 429.
	RateLimited
	// Blocked: the source served a block page or suspiciously small body.
	Blocked
	// MalformedResponse: the payload could not be decoded.
	MalformedResponse
	// NetworkFailure: connection-level failure.
	NetworkFailure
)

// String returns the kind name for logs.
func (k ErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case RateLimited:
		return "rate_limited"
	case Blocked:
		return "blocked"
	case MalformedResponse:
		return "malformed_response"
	case NetworkFailure:
		return "network_failure"
	}
	return "unknown"
}

// Error is the normalized adapter failure. It is recoverable and scoped
// to one source; the fan-out engine never lets it cross the aggregation
// boundary.
type Error struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could reasonably succeed.
// Block pages and malformed payloads are persistent for the lifetime of
// a query and fail immediately.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case Timeout, RateLimited, NetworkFailure:
		return true
	}
	return false
}

// Errf builds an *Error with a formatted cause.
func Errf(kind ErrorKind, source, format string, args ...any) *Error {
	return &Error{Kind: kind, Source: source, Err: fmt.Errorf(format, args...)}
}

// Classify normalizes a transport-level error into an *Error.
func Classify(source string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	kind := NetworkFailure
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = Timeout
	case errors.As(err, &nerr) && nerr.Timeout():
		kind = Timeout
	}
	return &Error{Kind: kind, Source: source, Err: err}
}

// ByPriority returns the subset of adapters named in sources, ordered by
// descending static priority. An empty sources list selects all
// registered adapters.
func ByPriority(registered []Adapter, sources []string) []Adapter {
	selected := registered
	if len(sources) > 0 {
		byName := make(map[string]Adapter, len(registered))
		for _, a := range registered {
			byName[a.Name()] = a
		}
		selected = selected[:0:0]
		for _, name := range sources {
			if a, ok := byName[name]; ok {
				selected = append(selected, a)
			}
		}
		if len(selected) == 0 {
			selected = registered
		}
	}
	out := make([]Adapter, len(selected))
	copy(out, selected)
	// Insertion sort keeps equal priorities in configured order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority() > out[j-1].Priority(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Names returns the adapter identifiers in order.
func Names(adapters []Adapter) []string {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	return names
}
