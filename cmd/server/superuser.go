package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umass-lrc/database/internal/repository"
	"github.com/umass-lrc/database/internal/service"
)

var superuser struct {
	username string
	email    string
	password string
}

var createSuperuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "创建超级管理员账号",
	Long: `创建超级管理员账号。

密码可通过 --password 传入，未传入时读取环境变量 LRC_SUPERUSER_PASSWORD。`,
	RunE: runCreateSuperuser,
}

func init() {
	f := createSuperuserCmd.Flags()
	f.StringVar(&superuser.username, "username", "", "用户名")
	f.StringVar(&superuser.email, "email", "", "邮箱")
	f.StringVar(&superuser.password, "password", "", "密码（至少 8 位）")
	_ = createSuperuserCmd.MarkFlagRequired("username")
}

func runCreateSuperuser(cmd *cobra.Command, _ []string) error {
	password := superuser.password
	if password == "" {
		password = os.Getenv("LRC_SUPERUSER_PASSWORD")
	}
	if len(password) < 8 {
		return fmt.Errorf("密码不能少于 8 位")
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	repo := repository.NewRepository(a.db)
	user, err := service.NewUserService(repo, a.logger).
		CreateSuperuser(context.Background(), superuser.username, superuser.email, password)
	if err != nil {
		return fmt.Errorf("创建超级管理员失败: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "已创建超级管理员 %s (%s)\n", user.Username, user.ID)
	return nil
}
