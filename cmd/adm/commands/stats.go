package commands

import (
	"fmt"

	"codetech/internal/services"
	contextutils "codetech/internal/utils"

	"github.com/spf13/cobra"
)

// StatsCommands returns the progress maintenance commands
func StatsCommands(env *Env) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Progress maintenance commands",
		Long: `Progress maintenance commands for CodeTech.

Available commands:
  repair   - Rebuild derived progress for every user
  cleanup  - Remove activity rows with no score or no owner`,
	}

	statsCmd.AddCommand(repairCmd(env))
	statsCmd.AddCommand(cleanupCmd(env))

	return statsCmd
}

func repairCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Rebuild derived progress for every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			adminService, err := env.AdminService(ctx)
			if err != nil {
				return err
			}
			report, err := adminService.RepairUserStats(ctx)
			if err != nil {
				return contextutils.WrapError(err, "repair failed")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Repaired %d users\n", report.Users)
			for _, failure := range report.Errors {
				fmt.Fprintf(out, "  user %d: %v\n", failure.UserID, failure.Err)
			}
			if len(report.Errors) > 0 {
				return contextutils.ErrorWithContextf("repair finished with %d errors", len(report.Errors))
			}
			return nil
		},
	}
}

func cleanupCmd(env *Env) *cobra.Command {
	var statsOnly bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove activity rows with no score or no owner",
		Long: `Remove activity rows with a NULL score and activity rows whose user no
longer exists.

Use --stats to see what would be removed without removing anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := env.DB(ctx)
			if err != nil {
				return err
			}
			cleanupService := services.NewCleanupServiceWithLogger(db, env.Logger)
			out := cmd.OutOrStdout()

			if statsOnly {
				stats, err := cleanupService.GetCleanupStats(ctx)
				if err != nil {
					return contextutils.WrapError(err, "failed to get cleanup stats")
				}
				fmt.Fprintf(out, "Null score activities: %d\n", stats["null_score_activities"])
				fmt.Fprintf(out, "Orphaned activities:   %d\n", stats["orphaned_activities"])
				return nil
			}

			nullRows, err := cleanupService.CleanupNullActivity(ctx)
			if err != nil {
				return contextutils.WrapError(err, "null activity cleanup failed")
			}
			orphanRows, err := cleanupService.CleanupOrphanedActivity(ctx)
			if err != nil {
				return contextutils.WrapError(err, "orphaned activity cleanup failed")
			}

			fmt.Fprintf(out, "Removed %d null score and %d orphaned activities\n", nullRows, orphanRows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statsOnly, "stats", false, "Only show cleanup statistics, don't perform cleanup")

	return cmd
}
