package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stablecoin-core/internal/model"
)

// autoMigrateCmd 按模型注册表执行 gorm 自动迁移 (开发环境用，
// 生产环境走 cmd/migrate 的 SQL 迁移)
var autoMigrateCmd = &cobra.Command{
	Use:   "auto-migrate",
	Short: "按模型定义自动迁移数据库 schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectDB()
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			return err
		}
		fmt.Println("schema 迁移完成")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autoMigrateCmd)
}
