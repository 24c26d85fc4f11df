package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"stablecoin-core/pkg/config"
	"stablecoin-core/pkg/database"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "reservectl",
	Short: "储备金后台管理命令行工具",
	Long: `稳定币储备金服务的运维工具。
维护审批成员与银行列表，执行 schema 自动迁移。`,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// connectDB 子命令共用的数据库连接
func connectDB() (*gorm.DB, error) {
	config.Init()
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	return database.ConnectPostgres(dsn)
}
