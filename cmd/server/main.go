package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/config"
	"github.com/umass-lrc/database/pkg/database"
	applogger "github.com/umass-lrc/database/pkg/logger"
)

var configPath string

// rootCmd LRC 管理后台入口
var rootCmd = &cobra.Command{
	Use:   "lrc",
	Short: "LRC 人员、课程、设备借用与值班管理后台",
	Long: `LRC 管理后台。

子命令:
  serve            启动 HTTP 服务
  migrate          执行（或回滚）数据库迁移
  seed             从 YAML 文件导入基础数据
  create-superuser 创建超级管理员`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml 或 ./config.yaml）")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, createSuperuserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// app 各子命令共用的基础依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// close 关闭数据库连接并刷新日志
func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
