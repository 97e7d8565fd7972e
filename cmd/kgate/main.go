package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kgate",
		Short: "Expose kubectl and argo to AI assistants over MCP",
		Long: `kgate is a command gateway that exposes kubectl and the Argo Workflows CLI as MCP tools.

It tracks the active context and namespace, injects them into forwarded commands and
checks read-only requests against an advisory policy. The policy is not a sandbox:
grant kgate only the RBAC permissions you are willing to hand to the assistant.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/kgate/kgate.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-json", false, "Log JSON lines instead of the console format")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newPolicyCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
