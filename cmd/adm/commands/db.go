package commands

import (
	"fmt"
	"os"

	"codetech/internal/database"
	"codetech/internal/seed"
	contextutils "codetech/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(env *Env) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for CodeTech.

Available commands:
  migrate  - Apply pending schema migrations
  seed     - Load subjects, levels and quizzes`,
	}

	dbCmd.AddCommand(migrateCmd(env))
	dbCmd.AddCommand(seedCmd(env))

	return dbCmd
}

func migrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			env.Logger.Info(ctx, "Running migrations", map[string]interface{}{
				"database_url": maskDatabaseURL(env.Config.Database.URL),
			})
			if err := env.manager.RunMigrations(ctx, env.Config.Database.URL); err != nil {
				return contextutils.WrapError(err, "migration failed")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func seedCmd(env *Env) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load subjects, levels and quizzes",
		Long: `Load content into the database. Without --dir the content bundled with
the binary is used. Only missing subjects, levels and quizzes are created.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			subjects, err := loadSubjects(dir)
			if err != nil {
				return err
			}

			db, err := env.DB(ctx)
			if err != nil {
				return err
			}
			gormDB, err := database.OpenGorm(db, env.Logger)
			if err != nil {
				return err
			}

			result, err := seed.NewSeeder(gormDB, env.Logger).Seed(ctx, subjects)
			if err != nil {
				return contextutils.WrapError(err, "seed failed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d subjects, %d levels, %d quizzes, %d questions (%s)\n",
				result.Subjects, result.Levels, result.Quizzes, result.Questions, getDatabaseInfo(ctx, db))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of subject YAML files")

	return cmd
}

func loadSubjects(dir string) ([]seed.SubjectFile, error) {
	if dir == "" {
		return seed.Embedded()
	}
	return seed.Load(os.DirFS(dir), ".")
}
