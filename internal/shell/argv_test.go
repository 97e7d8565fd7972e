package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgv(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "plain words",
			command: "kubectl get pods -n default",
			want:    []string{"kubectl", "get", "pods", "-n", "default"},
		},
		{
			name:    "extra whitespace",
			command: "  kubectl   get\tpods  ",
			want:    []string{"kubectl", "get", "pods"},
		},
		{
			name:    "single quoted argument with spaces",
			command: "kubectl annotate pod web 'note=hello world'",
			want:    []string{"kubectl", "annotate", "pod", "web", "note=hello world"},
		},
		{
			name:    "double quoted argument",
			command: `kubectl get pods -l "app=web"`,
			want:    []string{"kubectl", "get", "pods", "-l", "app=web"},
		},
		{
			name:    "quote splitting collapses",
			command: `kubectl de"le"te pod x`,
			want:    []string{"kubectl", "delete", "pod", "x"},
		},
		{
			name:    "escaped space",
			command: `kubectl get cm my\ map`,
			want:    []string{"kubectl", "get", "cm", "my map"},
		},
		{
			name:    "jsonpath stays literal",
			command: "kubectl get pods -o jsonpath='{.items[*].metadata.name}'",
			want:    []string{"kubectl", "get", "pods", "-o", "jsonpath={.items[*].metadata.name}"},
		},
		{
			name:    "trailing comment is dropped",
			command: "kubectl version # client only",
			want:    []string{"kubectl", "version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Argv(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgvRejects(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantErr error
	}{
		{"empty", "", ErrEmpty},
		{"only comment", "# nothing", ErrEmpty},
		{"semicolon list", "kubectl get pods; kubectl delete pod x", ErrCompound},
		{"newline list", "kubectl get pods\nkubectl delete pod x", ErrCompound},
		{"and list", "kubectl get pods && kubectl delete pod x", ErrCompound},
		{"pipeline", "kubectl get pods | sh", ErrCompound},
		{"subshell", "(kubectl get pods)", ErrCompound},
		{"redirect", "kubectl get pods > /tmp/out", ErrRedirect},
		{"background", "kubectl get pods &", ErrRedirect},
		{"negation", "! kubectl get pods", ErrRedirect},
		{"env assignment", "KUBECONFIG=/tmp/k kubectl get pods", ErrAssign},
		{"parameter expansion", "kubectl get $RESOURCE", ErrDynamic},
		{"command substitution", "kubectl get $(echo pods)", ErrDynamic},
		{"backticks", "kubectl get `echo pods`", ErrDynamic},
		{"expansion in double quotes", `kubectl get "$RESOURCE"`, ErrDynamic},
		{"tilde", "kubectl --kubeconfig ~/.kube/other get pods", ErrDynamic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Argv(tt.command)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestArgvParseError(t *testing.T) {
	_, err := Argv(`kubectl get "unterminated`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse command")
}
