// Package shell turns a command string into an argv using a real shell grammar.
//
// Only a single simple command made of static words is accepted. Anything a
// shell would interpret (lists, pipes, redirections, expansions) is rejected,
// since the gateway never runs a shell and would otherwise pass those
// characters through to the tool verbatim.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrEmpty is returned for a command with no words.
	ErrEmpty = errors.New("empty command")
	// ErrCompound is returned for lists, pipelines and other non-simple commands.
	ErrCompound = errors.New("command must be a single invocation")
	// ErrRedirect is returned for redirections, background jobs and negations.
	ErrRedirect = errors.New("redirections and job control are not supported")
	// ErrAssign is returned for leading environment assignments.
	ErrAssign = errors.New("environment assignments are not supported")
	// ErrDynamic is returned for words containing expansions.
	ErrDynamic = errors.New("shell expansions are not supported")
)

// Argv parses command and returns its words with quoting removed.
func Argv(command string) ([]string, error) {
	parser := syntax.NewParser()

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	switch len(file.Stmts) {
	case 0:
		return nil, ErrEmpty
	case 1:
	default:
		return nil, ErrCompound
	}

	stmt := file.Stmts[0]
	if stmt.Background || stmt.Coprocess || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, ErrRedirect
	}

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, ErrCompound
	}

	if len(call.Assigns) > 0 {
		return nil, ErrAssign
	}

	if len(call.Args) == 0 {
		return nil, ErrEmpty
	}

	argv := make([]string, 0, len(call.Args))

	for _, word := range call.Args {
		if !IsStatic(word) {
			return nil, fmt.Errorf("%w: %s", ErrDynamic, printWord(word))
		}

		lit, err := expand.Literal(nil, word)
		if err != nil {
			return nil, fmt.Errorf("failed to expand word: %w", err)
		}

		argv = append(argv, lit)
	}

	return argv, nil
}

// IsStatic reports whether word resolves to a fixed string without any
// parameter, command, arithmetic or process expansion.
func IsStatic(word *syntax.Word) bool {
	if word == nil {
		return true
	}

	for i, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			// a leading tilde would be expanded against $HOME
			if i == 0 && strings.HasPrefix(p.Value, "~") {
				return false
			}
		case *syntax.SglQuoted:
		case *syntax.DblQuoted:
			for _, sub := range p.Parts {
				if _, ok := sub.(*syntax.Lit); !ok {
					return false
				}
			}
		default:
			return false
		}
	}

	return true
}

func printWord(word *syntax.Word) string {
	var sb strings.Builder
	if err := syntax.NewPrinter().Print(&sb, word); err != nil {
		return "?"
	}

	return sb.String()
}
