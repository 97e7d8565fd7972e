// Package policy decides which tokenized tool invocations the gateway may forward.
//
// The read-only rules are advisory. They narrow what an agent can ask for but
// they are no substitute for RBAC on the cluster side: an allowed verb such as
// debug can still change state, and a deny term can only match what it spells.
package policy

import (
	"errors"
	"slices"
	"strings"
)

// ErrNotReadOnly is returned when a command fails the read-only rules. It
// deliberately carries no detail about which rule matched.
var ErrNotReadOnly = errors.New("not a read-only command")

// Rules is the read-only policy for one trusted tool.
type Rules struct {
	Tool      string     `yaml:"tool"`
	ReadVerbs [][]string `yaml:"read_verbs"`
	DenyTerms []string   `yaml:"deny_terms"`
	// GlobalFlags take a value and may precede the verb.
	GlobalFlags []string `yaml:"global_flags"`
}

// DefaultKubectl returns the built-in kubectl read-only rules.
func DefaultKubectl() Rules {
	return Rules{
		Tool: "kubectl",
		ReadVerbs: ParseVerbs([]string{
			"get",
			"describe",
			"explain",
			"logs",
			"top",
			"config view",
			"config get-contexts",
			"debug",
			"version",
			"api-resources",
			"cluster-info",
			"events",
		}),
		DenyTerms: []string{
			"delete",
			"update",
			"patch",
			"apply",
			"create",
			"replace",
			"edit",
			"scale",
			"cordon",
			"drain",
			"taint",
			"label --overwrite",
			"annotate --overwrite",
		},
		GlobalFlags: []string{
			"--context",
			"--namespace",
			"-n",
			"--kubeconfig",
			"--cluster",
			"--user",
			"--request-timeout",
			"-v",
		},
	}
}

// ParseVerbs splits each space separated verb path into its words.
func ParseVerbs(verbs []string) [][]string {
	paths := make([][]string, 0, len(verbs))

	for _, v := range verbs {
		if fields := strings.Fields(v); len(fields) > 0 {
			paths = append(paths, fields)
		}
	}

	return paths
}

// VerbStrings is the inverse of ParseVerbs.
func (r Rules) VerbStrings() []string {
	out := make([]string, 0, len(r.ReadVerbs))
	for _, path := range r.ReadVerbs {
		out = append(out, strings.Join(path, " "))
	}

	return out
}

// CheckReadOnly validates args, the argv without the tool token, against the rules.
// The verb path must begin with an allowed path and the joined args must not
// contain any deny term. A flag outside GlobalFlags ahead of the verb fails
// the check: its arity is unknown, so the verb cannot be located.
func (r Rules) CheckReadOnly(args []string) error {
	path, known := r.verbPath(args)
	if !known || !r.allowed(path) {
		return ErrNotReadOnly
	}

	if r.denied(args) {
		return ErrNotReadOnly
	}

	return nil
}

// VerbPath returns the positional words of args, skipping global flags and their values.
func (r Rules) VerbPath(args []string) []string {
	path, _ := r.verbPath(args)
	return path
}

// verbPath is VerbPath that also reports false when an unknown flag precedes
// an allowed verb path.
func (r Rules) verbPath(args []string) ([]string, bool) {
	var path []string

	known := true

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			path = append(path, arg)

			continue
		}

		if arg == "--" {
			path = append(path, args[i+1:]...)

			break
		}

		global, attached := r.globalFlag(arg)
		if !global {
			if !r.allowed(path) {
				known = false
			}

			continue
		}

		if !attached {
			i++
		}
	}

	return path, known
}

// globalFlag reports whether arg is one of GlobalFlags and whether it carries
// its value, as in --context=prod or -nkube-system.
func (r Rules) globalFlag(arg string) (global, attached bool) {
	name, _, hasValue := strings.Cut(arg, "=")

	for _, flag := range r.GlobalFlags {
		if name == flag {
			return true, hasValue
		}

		if isShortFlag(flag) && strings.HasPrefix(arg, flag) && !strings.HasPrefix(arg, "--") {
			return true, true
		}
	}

	return false, false
}

func (r Rules) allowed(path []string) bool {
	for _, verbs := range r.ReadVerbs {
		if len(path) >= len(verbs) && slices.Equal(path[:len(verbs)], verbs) {
			return true
		}
	}

	return false
}

func (r Rules) denied(args []string) bool {
	joined := strings.Join(args, " ")

	for _, term := range r.DenyTerms {
		if term != "" && strings.Contains(joined, term) {
			return true
		}
	}

	return false
}
