package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stablecoin-core/internal/model"
)

// bankAddCmd 添加一家赎回打款银行
var bankAddCmd = &cobra.Command{
	Use:   "bank-add <name>",
	Short: "添加银行",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectDB()
		if err != nil {
			return err
		}

		bank := model.BankInfo{Name: args[0]}
		if err := db.Create(&bank).Error; err != nil {
			return err
		}
		fmt.Printf("银行已创建: %s (id=%d)\n", bank.Name, bank.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bankAddCmd)
}
