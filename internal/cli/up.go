package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/acksell/localmirror/internal/bootstrap"
	"github.com/acksell/localmirror/internal/config"
	"github.com/acksell/localmirror/internal/logging"
	"github.com/acksell/localmirror/internal/mirror"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the local emulator and wait until it is ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logging.New(cfg.LogFile, cfg.LogLevel)

		composeFile, _ := cmd.Flags().GetString("compose-file")

		color.Cyan("Starting emulator stack...")
		ctx := cmd.Context()
		if err := bootstrap.Up(ctx, composeFile); err != nil {
			return err
		}

		target, err := mirror.NewTargetClients(ctx, cfg.Region, cfg.TargetEndpoint)
		if err != nil {
			return err
		}
		color.Cyan("Waiting for emulator at %s...", cfg.TargetEndpoint)
		if err := bootstrap.WaitReady(ctx, target.S3, 60, bootstrap.DefaultBackoff, log); err != nil {
			return err
		}

		color.Green("✓ Emulator ready at %s", cfg.TargetEndpoint)
		return nil
	},
}

func init() {
	upCmd.Flags().String("compose-file", "", "docker compose file for the emulator stack")
}
