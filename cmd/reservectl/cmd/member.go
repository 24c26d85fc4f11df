package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stablecoin-core/internal/model"
	"stablecoin-core/pkg/crypto_util"
)

// memberAddCmd 添加一名审批成员 (口令以 bcrypt 存储)
var memberAddCmd = &cobra.Command{
	Use:   "member-add <name> <password>",
	Short: "添加审批成员",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectDB()
		if err != nil {
			return err
		}

		hash, err := crypto_util.HashPassword(args[1])
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		member := model.ApprovalMember{
			Name:         args[0],
			PasswordHash: hash,
		}
		if err := db.Create(&member).Error; err != nil {
			return err
		}
		fmt.Printf("审批成员已创建: %s (id=%d)\n", member.Name, member.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(memberAddCmd)
}
