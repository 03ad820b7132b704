package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/migrations"
)

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|redo|reset|status|version] [args...]",
		Short: "Run database migrations",
		Args:  cobra.ArbitraryArgs,
		RunE:  runMigrate,
	}
	cmd.Flags().Bool("embedded", false, "use the migrations compiled into the binary instead of MIGRATIONS_DIR")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(); err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	embedded, _ := cmd.Flags().GetBool("embedded")
	dir := a.cfg.Database.MigrationsDir
	if _, statErr := os.Stat(dir); embedded || statErr != nil {
		goose.SetBaseFS(migrations.FS)
		dir = "."
	}

	goose.SetLogger(gooseLogger{a.logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	a.logger.Info("running migrations", zap.String("command", command), zap.String("dir", dir))
	if err := goose.RunContext(cmd.Context(), command, a.db.DB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
