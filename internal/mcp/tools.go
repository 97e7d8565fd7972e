// Package mcp exposes the gateway and session operations as MCP tools.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/dennisklein/kgate/internal/failure"
	"github.com/dennisklein/kgate/internal/session"
)

// Commands is the command side of the gateway.
type Commands interface {
	ExecutePrivileged(ctx context.Context, command string) (string, error)
	ExecuteReadOnly(ctx context.Context, command string) (string, error)
	ExecuteOrchestrator(ctx context.Context, command string) (string, error)
}

// Session is the context manager side of the gateway.
type Session interface {
	State() session.State
	SwitchContext(ctx context.Context, name string) (string, error)
	SwitchNamespace(ctx context.Context, name string) (string, error)
	Contexts() ([]session.ContextInfo, error)
	Namespaces(ctx context.Context) ([]string, error)
}

// SwitchContextInput is the input for the switch_context tool.
type SwitchContextInput struct {
	Context string `json:"context" jsonschema:"required,description=Name of the kubeconfig context to switch to"`
}

// SwitchNamespaceInput is the input for the switch_namespace tool.
type SwitchNamespaceInput struct {
	Namespace string `json:"namespace" jsonschema:"required,description=Namespace to make the default for the active context"`
}

// SwitchOutput is the output of the switch tools.
type SwitchOutput struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// CommandInput is the input for the command tools.
type CommandInput struct {
	Command string `json:"command" jsonschema:"required,description=Full command line including the tool name (e.g. kubectl get pods -n default)"`
}

// CommandOutput is the output of the command tools. Output holds the captured
// stdout; Error holds stderr or the rejection reason.
type CommandOutput struct {
	Output    string `json:"output"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// ListContextsInput is the input for the list_contexts tool.
type ListContextsInput struct{}

// ListContextsOutput is the output for the list_contexts tool.
type ListContextsOutput struct {
	Active    string                `json:"active"`
	Contexts  []session.ContextInfo `json:"contexts"`
	Error     string                `json:"error,omitempty"`
	ErrorKind string                `json:"error_kind,omitempty"`
}

// ListNamespacesInput is the input for the list_namespaces tool.
type ListNamespacesInput struct{}

// ListNamespacesOutput is the output for the list_namespaces tool.
type ListNamespacesOutput struct {
	Context    string   `json:"context"`
	Namespaces []string `json:"namespaces"`
	Error      string   `json:"error,omitempty"`
	ErrorKind  string   `json:"error_kind,omitempty"`
}

// RegisterAll registers all kgate tools with the server.
func RegisterAll(srv *mcp.Server, cmds Commands, sess Session) {
	// Session
	registerSwitchContextTool(srv, sess)
	registerSwitchNamespaceTool(srv, sess)
	registerListContextsTool(srv, sess)
	registerListNamespacesTool(srv, sess)

	// Commands
	registerKubectlTool(srv, cmds)
	registerKubectlReadOnlyTool(srv, cmds)
	registerArgoTool(srv, cmds)
}

func registerSwitchContextTool(srv *mcp.Server, sess Session) {
	srv.Tool("switch_context").
		Description("Switch the active Kubernetes context. Later commands target this context unless they pass --context.").
		Destructive().
		Handler(func(ctx context.Context, in SwitchContextInput) (*SwitchOutput, error) {
			msg, err := sess.SwitchContext(ctx, in.Context)
			if err != nil {
				kind, text := render(err)
				return &SwitchOutput{Error: text, ErrorKind: kind}, nil
			}

			return &SwitchOutput{Message: msg}, nil
		})
}

func registerSwitchNamespaceTool(srv *mcp.Server, sess Session) {
	srv.Tool("switch_namespace").
		Description("Switch the default namespace of the active Kubernetes context.").
		Destructive().
		Handler(func(ctx context.Context, in SwitchNamespaceInput) (*SwitchOutput, error) {
			msg, err := sess.SwitchNamespace(ctx, in.Namespace)
			if err != nil {
				kind, text := render(err)
				return &SwitchOutput{Error: text, ErrorKind: kind}, nil
			}

			return &SwitchOutput{Message: msg}, nil
		})
}

func registerListContextsTool(srv *mcp.Server, sess Session) {
	srv.Tool("list_contexts").
		Description("List the contexts in the kubeconfig, marking the active one.").
		ReadOnly().
		Handler(func(_ context.Context, _ ListContextsInput) (*ListContextsOutput, error) {
			out := &ListContextsOutput{Active: sess.State().Context, Contexts: []session.ContextInfo{}}

			contexts, err := sess.Contexts()
			if err != nil {
				out.ErrorKind, out.Error = render(err)
				return out, nil
			}

			out.Contexts = contexts

			return out, nil
		})
}

func registerListNamespacesTool(srv *mcp.Server, sess Session) {
	srv.Tool("list_namespaces").
		Description("List the namespaces of the cluster behind the active context.").
		ReadOnly().
		Handler(func(ctx context.Context, _ ListNamespacesInput) (*ListNamespacesOutput, error) {
			out := &ListNamespacesOutput{Context: sess.State().Context, Namespaces: []string{}}

			namespaces, err := sess.Namespaces(ctx)
			if err != nil {
				out.ErrorKind, out.Error = render(err)
				return out, nil
			}

			out.Namespaces = namespaces

			return out, nil
		})
}

func registerKubectlTool(srv *mcp.Server, cmds Commands) {
	srv.Tool("run_kubectl_command").
		Description("Run a kubectl command against the active context. The command must start with 'kubectl '. " +
			"Mutating commands are allowed.").
		Destructive().
		Handler(func(ctx context.Context, in CommandInput) (*CommandOutput, error) {
			return runCommand(ctx, in, cmds.ExecutePrivileged), nil
		})
}

func registerKubectlReadOnlyTool(srv *mcp.Server, cmds Commands) {
	srv.Tool("run_kubectl_command_ro").
		Description("Run a read-only kubectl command (get, describe, logs, top, explain, events, ...) " +
			"against the active context. The command must start with 'kubectl '.").
		ReadOnly().
		Handler(func(ctx context.Context, in CommandInput) (*CommandOutput, error) {
			return runCommand(ctx, in, cmds.ExecuteReadOnly), nil
		})
}

func registerArgoTool(srv *mcp.Server, cmds Commands) {
	srv.Tool("run_argo_command").
		Description("Run an Argo Workflows CLI command against the active context and namespace. " +
			"The command must start with 'argo '.").
		Destructive().
		Handler(func(ctx context.Context, in CommandInput) (*CommandOutput, error) {
			return runCommand(ctx, in, cmds.ExecuteOrchestrator), nil
		})
}

func runCommand(ctx context.Context, in CommandInput, execute func(context.Context, string) (string, error)) *CommandOutput {
	if err := ValidateCommandInput(&in); err != nil {
		kind, text := render(err)
		return &CommandOutput{Error: text, ErrorKind: kind}
	}

	out, err := execute(ctx, in.Command)
	if err != nil {
		kind, text := render(err)
		return &CommandOutput{Output: out, Error: text, ErrorKind: kind}
	}

	return &CommandOutput{Output: out}
}

func render(err error) (kind, text string) {
	return failure.KindOf(err).String(), "Error: " + err.Error()
}
