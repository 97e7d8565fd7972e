package main

import (
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check COMMAND...",
		Short: "Check a kubectl command against the read-only policy",
		Long: `Report whether run_kubectl_command_ro would accept a command, and the
argv it would execute. Nothing is run.

Examples:
  kgate check kubectl get pods -A
  kgate check kubectl delete pod nginx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	// everything from the tool name on belongs to the checked command
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	command := shellquote.Join(args...)

	argv, err := a.gateway.Authorize(command)
	if err != nil {
		if _, writeErr := fmt.Fprintf(out, "%s %s\n", deniedStyle.Render("denied"), command); writeErr != nil {
			return fmt.Errorf("failed to write output: %w", writeErr)
		}

		return err
	}

	if _, err := fmt.Fprintf(out, "%s %s\n", successStyle.Bold(true).Render("allowed"), shellquote.Join(argv...)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}
