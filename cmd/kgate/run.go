package main

import (
	"errors"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [--read-only | --argo] COMMAND...",
		Short: "Run one command through the gateway",
		Long: `Run a single kubectl or argo command the way the MCP tools would.

The command is authorized and has the session context and namespace injected
exactly like run_kubectl_command, run_kubectl_command_ro or run_argo_command.

Examples:
  kgate run kubectl get pods -n default
  kgate run --read-only kubectl describe node worker-0
  kgate run --argo --namespace argo argo list`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().Bool("read-only", false, "Apply the read-only policy")
	cmd.Flags().Bool("argo", false, "Run an argo command")
	cmd.MarkFlagsMutuallyExclusive("read-only", "argo")
	addSessionFlags(cmd)
	// everything from the tool name on belongs to the forwarded command
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	a.applySession(ctx)

	readOnly, err := cmd.Flags().GetBool("read-only")
	if err != nil {
		return fmt.Errorf("failed to get --read-only flag: %w", err)
	}

	argo, err := cmd.Flags().GetBool("argo")
	if err != nil {
		return fmt.Errorf("failed to get --argo flag: %w", err)
	}

	execute := a.gateway.ExecutePrivileged

	switch {
	case readOnly:
		execute = a.gateway.ExecuteReadOnly
	case argo:
		execute = a.gateway.ExecuteOrchestrator
	}

	// re-quote so arguments with spaces survive the gateway's tokenizer
	out, err := execute(ctx, shellquote.Join(args...))

	if _, writeErr := fmt.Fprint(cmd.OutOrStdout(), out); writeErr != nil {
		return errors.Join(err, fmt.Errorf("failed to write output: %w", writeErr))
	}

	return err
}
