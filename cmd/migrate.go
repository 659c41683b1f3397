package cmd

import (
	"fmt"

	"Audiotheque/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}
		fmt.Printf("数据库 %s 迁移完成\n", cfg.DBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
