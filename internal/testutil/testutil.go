// SPDX-FileCopyrightText: 2025 GSI Helmholtzzentrum für Schwerionenforschung GmbH
//
// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"sync"
)

// ErrorWriter is a test writer that returns errors.
// It can be configured to fail immediately or after a certain number of writes.
type ErrorWriter struct {
	err       error
	failAfter int // Number of writes before failing (0 = always fail)
	writes    int
}

// NewErrorWriter creates an ErrorWriter that always fails with the given error.
func NewErrorWriter(err error) *ErrorWriter {
	return &ErrorWriter{
		failAfter: 0,
		err:       err,
	}
}

// NewErrorWriterAfter creates an ErrorWriter that fails after n successful writes.
func NewErrorWriterAfter(n int, err error) *ErrorWriter {
	return &ErrorWriter{
		failAfter: n,
		err:       err,
	}
}

// Write implements io.Writer and returns an error based on configuration.
func (e *ErrorWriter) Write(p []byte) (n int, err error) {
	if e.failAfter == 0 || e.writes >= e.failAfter {
		return 0, e.err
	}

	e.writes++

	return len(p), nil
}

// Call is one invocation recorded by SpyRunner.
type Call struct {
	Name string
	Args []string
}

// SpyRunner records every invocation and answers from Stdout and Err.
// It is safe for concurrent use.
type SpyRunner struct {
	// Err, when set, decides the result of a call. A nil return means success.
	Err func(name string, args []string) error

	Stdout string
	calls  []Call
	mu     sync.Mutex
}

// Run implements runner.Runner.
func (s *SpyRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Name: name, Args: append([]string(nil), args...)})
	s.mu.Unlock()

	if s.Err != nil {
		if err := s.Err(name, args); err != nil {
			return "", err
		}
	}

	return s.Stdout, nil
}

// Calls returns a copy of the recorded invocations.
func (s *SpyRunner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}
