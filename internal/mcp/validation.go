package mcp

import (
	"strings"

	"github.com/dennisklein/kgate/internal/failure"
)

// MaxCommandLength bounds the command tools' input.
const MaxCommandLength = 8192

// ValidateCommandInput validates CommandInput fields.
func ValidateCommandInput(in *CommandInput) error {
	if strings.TrimSpace(in.Command) == "" {
		return failure.New(failure.KindInvalid, "command must not be empty")
	}

	if len(in.Command) > MaxCommandLength {
		return failure.New(failure.KindInvalid, "command exceeds %d bytes", MaxCommandLength)
	}

	if strings.ContainsRune(in.Command, 0) {
		return failure.New(failure.KindInvalid, "command must not contain NUL bytes")
	}

	return nil
}
