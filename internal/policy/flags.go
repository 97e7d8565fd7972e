package policy

import "strings"

// HasFlag reports whether argv carries any of the named flags, either as a
// bare token or in --flag=value form. Short flags also match their attached
// form, so -n matches -nkube-system.
func HasFlag(argv []string, names ...string) bool {
	for _, arg := range argv {
		if arg == "--" {
			return false
		}

		for _, name := range names {
			if arg == name || strings.HasPrefix(arg, name+"=") {
				return true
			}

			if isShortFlag(name) && strings.HasPrefix(arg, name) && !strings.HasPrefix(arg, "--") {
				return true
			}
		}
	}

	return false
}

// InjectFlag returns a copy of argv with --name=value inserted right after the tool token.
func InjectFlag(argv []string, name, value string) []string {
	out := make([]string, 0, len(argv)+1)
	if len(argv) > 0 {
		out = append(out, argv[0])
	}

	out = append(out, name+"="+value)

	if len(argv) > 1 {
		out = append(out, argv[1:]...)
	}

	return out
}

func isShortFlag(name string) bool {
	return len(name) == 2 && name[0] == '-' && name[1] != '-'
}
