package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/pkg/database"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移（PostgreSQL 使用内嵌 SQL，SQLite 使用 AutoMigrate）",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&rollbackSteps, "rollback", 0, "回滚指定步数（仅 PostgreSQL）")
}

func runMigrate(_ *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if rollbackSteps <= 0 {
		return database.Migrate(a.db, a.cfg.Database.Driver, model.AllModels(), a.logger)
	}

	if a.cfg.Database.Driver != "postgres" {
		return fmt.Errorf("--rollback 仅支持 PostgreSQL")
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return database.RollbackMigrations(sqlDB, rollbackSteps, a.logger)
}
