package cli

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/briandowns/spinner"
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/acksell/localmirror/internal/bootstrap"
	"github.com/acksell/localmirror/internal/config"
	"github.com/acksell/localmirror/internal/logging"
	"github.com/acksell/localmirror/internal/mirror"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate resources from the live account into the emulator",
	Long: `Migrate the selected resource kinds from the live AWS account into the
local emulator. Kinds run concurrently; a failure in one kind never
aborts the others.

With --all or --kinds the run is fully non-interactive. Without either,
an interactive selection is shown.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("all", false, "Migrate all resource kinds")
	migrateCmd.Flags().StringSlice("kinds", nil,
		fmt.Sprintf("Resource kinds to migrate %v", kindNames()))
	migrateCmd.Flags().String("filter", "", "Only migrate resources whose name contains this substring")
	migrateCmd.Flags().Bool("copy-data", false, "Copy table items and database contents, not just schemas")
	migrateCmd.Flags().String("report", "", "Write a YAML run summary to this file")

	viper.BindPFlag("copy-data", migrateCmd.Flags().Lookup("copy-data"))
	viper.BindPFlag("report-file", migrateCmd.Flags().Lookup("report"))
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogFile, cfg.LogLevel)

	figure.NewFigure("localmirror", "", true).Print()

	kinds, filter, err := resolveSelection(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	source, err := mirror.NewSourceClients(ctx, cfg.Region)
	if err != nil {
		return err
	}
	target, err := mirror.NewTargetClients(ctx, cfg.Region, cfg.TargetEndpoint)
	if err != nil {
		return err
	}

	color.Cyan("Waiting for emulator at %s...", cfg.TargetEndpoint)
	if err := bootstrap.WaitReady(ctx, target.S3, 30, bootstrap.DefaultBackoff, log); err != nil {
		return err
	}

	runner := mirror.NewRunner(newRegistry(cfg, source, target, log), source.STS, cfg.Workers, log)

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " migrating..."
	sp.Start()
	results, err := runner.Run(ctx, kinds, mirror.Request{
		Filter:   mirror.NewFilter(filter),
		CopyData: cfg.CopyData,
	})
	sp.Stop()
	if err != nil {
		return err
	}

	printSummary(results)

	if cfg.ReportFile != "" {
		if err := writeReport(cfg.ReportFile, results); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		color.Cyan("Report written to %s", cfg.ReportFile)
	}
	return nil
}

// newRegistry builds one migrator per supported kind, all pointed from
// the source clients at the target clients.
func newRegistry(cfg *config.Config, source, target *mirror.Clients, log logrus.FieldLogger) mirror.Registry {
	stubber := mirror.NewStubber(target.Lambda, target.IAM, log)
	return mirror.NewRegistry(
		mirror.NewBucketMigrator(source.S3, target.S3, log),
		mirror.NewFunctionMigrator(source.Lambda, target.Lambda, target.S3, target.IAM, cfg.StagingBucket, log),
		mirror.NewQueueMigrator(source.SQS, target.SQS, log),
		mirror.NewTableMigrator(source.Dynamo, target.Dynamo, log),
		mirror.NewUserPoolMigrator(source.Cognito, target.Cognito, stubber, log),
		mirror.NewDBInstanceMigrator(source.RDS, target.RDS, mirror.NewDatabaseCopier(log),
			dbEndpoint(cfg.Database.Source), dbEndpoint(cfg.Database.Target), log),
	)
}

func dbEndpoint(e config.DBEndpoint) mirror.DatabaseEndpoint {
	return mirror.DatabaseEndpoint{
		Host:     e.Host,
		Port:     e.Port,
		User:     e.User,
		Password: e.Password,
		Name:     e.Name,
	}
}

// resolveSelection turns flags into the kind list and filter, falling
// back to interactive prompts only when both kind flags are omitted.
func resolveSelection(cmd *cobra.Command) ([]mirror.Kind, string, error) {
	all, _ := cmd.Flags().GetBool("all")
	names, _ := cmd.Flags().GetStringSlice("kinds")
	filter, _ := cmd.Flags().GetString("filter")

	if all {
		return mirror.AllKinds(), filter, nil
	}
	if len(names) > 0 {
		// Unknown names pass through; the orchestrator reports them as
		// configuration warnings without starting a task.
		kinds := make([]mirror.Kind, 0, len(names))
		for _, n := range names {
			kinds = append(kinds, mirror.Kind(n))
		}
		return kinds, filter, nil
	}

	var selected []string
	if err := survey.AskOne(&survey.MultiSelect{
		Message: "Resource kinds to migrate:",
		Options: kindNames(),
		Default: kindNames(),
	}, &selected, survey.WithValidator(survey.Required)); err != nil {
		return nil, "", err
	}
	if filter == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Name filter (leave blank to migrate everything):",
		}, &filter); err != nil {
			return nil, "", err
		}
	}

	kinds := make([]mirror.Kind, 0, len(selected))
	for _, n := range selected {
		kinds = append(kinds, mirror.Kind(n))
	}
	return kinds, filter, nil
}

func kindNames() []string {
	all := mirror.AllKinds()
	names := make([]string, len(all))
	for i, k := range all {
		names[i] = string(k)
	}
	return names
}

func printSummary(results mirror.Results) {
	fmt.Println()
	for _, kind := range mirror.AllKinds() {
		outcomes, ok := results[kind]
		if !ok {
			continue
		}
		counts := mirror.Tally(outcomes)
		color.Cyan("%s:", kind)
		color.Green("  created:        %d", counts[mirror.StatusCreated])
		color.Green("  already exists: %d", counts[mirror.StatusAlreadyExists])
		if n := counts[mirror.StatusSkipped]; n > 0 {
			color.Yellow("  skipped:        %d", n)
		}
		if n := counts[mirror.StatusFailed]; n > 0 {
			color.Red("  failed:         %d", n)
		}
		for _, oc := range outcomes {
			if oc.Status == mirror.StatusFailed {
				color.Red("    ✗ %s: %v", oc.Name, oc.Err)
			}
			if oc.Copy != nil && oc.Copy.Err != nil {
				color.Red("    ✗ %s: data copy: %v", oc.Name, oc.Copy.Err)
			}
		}
	}
	if failed := results.Failed(); len(failed) > 0 {
		color.Red("\n%d resource(s) failed to migrate; see the log for details", len(failed))
	} else {
		color.Green("\nAll selected resources migrated")
	}
}
