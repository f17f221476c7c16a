// Package cli implements the realms-admin command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/config"
	"github.com/FlowerRealm/realms-admin/pkg/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	verbose    bool
	jsonOut    bool
	configPath string

	cfg    *config.Config
	log    *slog.Logger
	client *api.Client
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "realms-admin",
		Short: "Operator console for a Realms deployment",
		Long: `realms-admin manages channel groups, main groups, channels, users, tickets,
OAuth apps, announcements, billing and settings of a Realms deployment through
its admin API.

Every API command acts as the admin session configured in server.* (see
"realms-admin config show").`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (replaces global and project files)")

	rootCmd.AddCommand(a.channelGroupsCmd())
	rootCmd.AddCommand(a.mainGroupsCmd())
	rootCmd.AddCommand(a.channelsCmd())
	rootCmd.AddCommand(a.usersCmd())
	rootCmd.AddCommand(a.ticketsCmd())
	rootCmd.AddCommand(a.oauthAppsCmd())
	rootCmd.AddCommand(a.announcementsCmd())
	rootCmd.AddCommand(a.paymentChannelsCmd())
	rootCmd.AddCommand(a.plansCmd())
	rootCmd.AddCommand(a.ordersCmd())
	rootCmd.AddCommand(a.settingsCmd())
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(a.sandboxCmd())
	rootCmd.AddCommand(versionCmd(version))

	return rootCmd
}

// setup loads configuration and logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.Output.JSON {
		a.jsonOut = true
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = logging.New(cmd.ErrOrStderr(), level)
	slog.SetDefault(a.log)
	return nil
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd := newRootCmd(version)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", api.Message(err))
		return err
	}
	return nil
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the realms-admin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "realms-admin %s\n", version)
		},
	}
}
