package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage realms-admin configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show merged configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Redacted()
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			out := cmd.OutOrStdout()
			if a.configPath != "" {
				fmt.Fprintf(out, "# Configuration from %s\n", a.configPath)
			} else {
				fmt.Fprintln(out, "# Merged configuration (global + project + environment)")
			}
			_, err = out.Write(data)
			return err
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Global:  %s\n", config.GlobalConfigPath())
			fmt.Fprintf(out, "Project: %s\n", config.ProjectConfigPath())
			fmt.Fprintf(out, "Drafts:  %s\n", a.cfg.Drafts.Path)
		},
	}

	var global, force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, write := config.ProjectConfigPath(), config.WriteProjectDefault
			if global {
				path, write = config.GlobalConfigPath(), config.WriteDefault
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := write(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&global, "global", false, "Write the global config instead of the project one")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	var editGlobal bool
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Open configuration in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigPath()
			if editGlobal {
				path = config.GlobalConfigPath()
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			c := exec.CommandContext(cmd.Context(), editor, path)
			c.Stdin = os.Stdin
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			return c.Run()
		},
	}
	editCmd.Flags().BoolVar(&editGlobal, "global", false, "Edit global config")

	cmd.AddCommand(showCmd, pathCmd, initCmd, editCmd)
	return cmd
}
