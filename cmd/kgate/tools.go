package main

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dennisklein/kgate/internal/tool"
	"github.com/dennisklein/kgate/internal/util"
)

const (
	toolNameWidth = 10
	versionWidth  = 10
	sizeWidth     = 10
)

var (
	toolNameStyle   = lipgloss.NewStyle().Bold(true).Width(toolNameWidth).Align(lipgloss.Left)
	versionStyle    = lipgloss.NewStyle().Width(versionWidth).Align(lipgloss.Left)
	latestStyle     = versionStyle.Foreground(lipgloss.Color("10"))
	oldVersionStyle = versionStyle.Foreground(lipgloss.Color("8"))
	notCachedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	sizeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(sizeWidth).Align(lipgloss.Right)
	totalSizeStyle  = sizeStyle.Bold(true)
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	deniedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage the trusted tool binaries",
		Long: `Manage the kubectl and argo binaries kgate executes.

kgate prefers binaries on PATH. Otherwise it runs the newest cached download,
which these commands inspect, fetch and remove.`,
	}

	cmd.AddCommand(newToolsCleanCmd())
	cmd.AddCommand(newToolsInfoCmd())
	cmd.AddCommand(newToolsUpdateCmd())

	return cmd
}

func newToolsCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [tool...]",
		Short: "Remove cached tools",
		Long:  `Remove cached tool binaries. If no tool names are specified, cleans all tools.`,
		RunE:  runToolsClean,
	}

	cmd.Flags().Bool("old", false, "Only remove obsolete versions (keep most recent)")

	return cmd
}

func newToolsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [tool...]",
		Short: "Show tool information",
		Long:  `Show the PATH location and the cached versions of each tool. If no tool names are specified, shows all tools.`,
		RunE:  runToolsInfo,
	}
}

func newToolsUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [tool...]",
		Short: "Download the latest tool versions",
		Long:  `Check for and download the latest version of tools. If no tool names are specified, updates all tools.`,
		RunE:  runToolsUpdate,
	}
}

func runToolsClean(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	tools, err := resolveTools(newRegistry(out), args)
	if err != nil {
		return err
	}

	cleanOld, err := cmd.Flags().GetBool("old")
	if err != nil {
		return fmt.Errorf("failed to get --old flag: %w", err)
	}

	var totalReclaimed int64

	for _, t := range tools {
		versions, err := t.CachedVersions()
		if err != nil {
			return fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
		}

		if cleanOld {
			// versions[0] is the newest and stays
			for i := 1; i < len(versions); i++ {
				totalReclaimed += versions[i].Size

				if err := t.CleanVersion(versions[i].Version); err != nil {
					return fmt.Errorf("failed to clean %s version %s: %w", t.Name, versions[i].Version, err)
				}
			}

			continue
		}

		for _, v := range versions {
			totalReclaimed += v.Size
		}

		if err := t.CleanAll(); err != nil {
			return fmt.Errorf("failed to clean %s: %w", t.Name, err)
		}
	}

	if totalReclaimed > 0 {
		reclaimed := successStyle.Bold(true).Render(util.FormatBytes(totalReclaimed))

		if _, err := fmt.Fprintf(out, "Reclaimed %s\n", reclaimed); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}

func runToolsInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	tools, err := resolveTools(newRegistry(nil), args)
	if err != nil {
		return err
	}

	var totalSize int64

	for _, t := range tools {
		size, err := printToolInfo(out, t)
		if err != nil {
			return err
		}

		totalSize += size
	}

	if len(tools) > 1 && totalSize > 0 {
		totalName := toolNameStyle.Render("cache")
		emptyVersion := versionStyle.Render("")
		totalSizeStr := totalSizeStyle.Render(util.FormatBytes(totalSize))

		if _, err := fmt.Fprintf(out, "\n%s  %s  %s\n", totalName, emptyVersion, totalSizeStr); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}

func printToolInfo(out io.Writer, t *tool.Tool) (int64, error) {
	toolName := toolNameStyle.Render(t.Name)

	if path, err := lookPath(t.Name); err == nil {
		if _, err := fmt.Fprintf(out, "%s  %s  %s\n", toolName, infoStyle.Render(versionStyle.Render("PATH")), path); err != nil {
			return 0, fmt.Errorf("failed to write output: %w", err)
		}
	}

	versions, err := t.CachedVersions()
	if err != nil {
		return 0, fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
	}

	if len(versions) == 0 {
		if _, err := fmt.Fprintf(out, "%s  %s\n", toolName, notCachedStyle.Render("(not cached)")); err != nil {
			return 0, fmt.Errorf("failed to write output: %w", err)
		}

		return 0, nil
	}

	var totalSize int64

	for i, v := range versions {
		totalSize += v.Size

		style := oldVersionStyle
		if i == 0 {
			style = latestStyle
		}

		styledVersion := style.Render(v.Version)
		styledSize := sizeStyle.Render(util.FormatBytes(v.Size))

		if _, err := fmt.Fprintf(out, "%s  %s  %s  %s\n", toolName, styledVersion, styledSize, v.Path); err != nil {
			return 0, fmt.Errorf("failed to write output: %w", err)
		}
	}

	return totalSize, nil
}

func runToolsUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	tools, err := resolveTools(newRegistry(out), args)
	if err != nil {
		return err
	}

	for _, t := range tools {
		latest, err := t.LatestVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to get latest version for %s: %w", t.Name, err)
		}

		versions, err := t.CachedVersions()
		if err != nil {
			return fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
		}

		toolName := toolNameStyle.Render(t.Name)
		version := latestStyle.Render(latest)

		if len(versions) > 0 && versions[0].Version == latest {
			if _, err := fmt.Fprintf(out, "%s %s %s\n", toolName, version, infoStyle.Render("already cached")); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			continue
		}

		if err := t.Download(ctx); err != nil {
			return fmt.Errorf("failed to download %s: %w", t.Name, err)
		}
	}

	return nil
}

func resolveTools(registry *tool.Registry, names []string) ([]*tool.Tool, error) {
	if len(names) == 0 {
		return registry.AllTools(), nil
	}

	tools := make([]*tool.Tool, 0, len(names))

	for _, name := range names {
		t := registry.Get(name)
		if t == nil {
			return nil, fmt.Errorf("unknown tool %q (known: %v)", name, registry.All())
		}

		tools = append(tools, t)
	}

	return tools, nil
}
