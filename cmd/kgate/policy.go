package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// policyDoc is the YAML shape of the policy command, matching the config file keys.
type policyDoc struct {
	Tool        string   `yaml:"tool"`
	ReadVerbs   []string `yaml:"read_verbs"`
	DenyTerms   []string `yaml:"deny_terms"`
	GlobalFlags []string `yaml:"global_flags"`
}

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective read-only policy",
		Long:  `Print the read-only kubectl policy after config overrides are applied, as YAML.`,
		Args:  cobra.NoArgs,
		RunE:  runPolicy,
	}
}

func runPolicy(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rules := cfg.KubectlRules()

	data, err := yaml.Marshal(policyDoc{
		Tool:        rules.Tool,
		ReadVerbs:   rules.VerbStrings(),
		DenyTerms:   rules.DenyTerms,
		GlobalFlags: rules.GlobalFlags,
	})
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}

	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}
