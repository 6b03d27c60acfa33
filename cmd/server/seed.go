package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
	"github.com/umass-lrc/database/internal/service"
	"github.com/umass-lrc/database/pkg/database"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "从 YAML 导入角色组、地点、课程与设备（可重复执行）",
	Example: `  lrc seed --file seed.yaml
  lrc seed            # 仅确保默认角色组存在`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "种子数据 YAML 文件")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	data := &service.SeedData{}
	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("打开种子文件失败: %w", err)
		}
		defer f.Close()
		if data, err = service.ParseSeedFile(f); err != nil {
			return err
		}
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := database.Migrate(a.db, a.cfg.Database.Driver, model.AllModels(), a.logger); err != nil {
		return err
	}

	repo := repository.NewRepository(a.db)
	result, err := service.NewSeedService(repo, a.logger).Seed(context.Background(), data)
	if err != nil {
		return fmt.Errorf("导入种子数据失败: %w", err)
	}

	a.logger.Info("种子数据导入完成", zap.Any("result", result))
	fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", *result)
	return nil
}
