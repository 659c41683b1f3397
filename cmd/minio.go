package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"Audiotheque/core/janitor"
	"Audiotheque/db"
	"Audiotheque/repository"
	"Audiotheque/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioSweep  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看媒体存储桶中的文件和统计信息，或立即清理未被任何音频引用的文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		media, err := storage.NewMediaHost(cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if !minioSweep {
			return media.PrintBucketStatus(ctx, os.Stdout, minioPrefix)
		}

		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()

		report, err := janitor.New(media, repository.NewGormAudioRepository(gdb), janitor.DefaultGrace).Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("扫描 %d 个文件, 删除 %d 个, 失败 %d 个\n", report.Scanned, report.Deleted, report.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", storage.AudioPrefix, "按前缀过滤文件")
	minioCmd.Flags().BoolVar(&minioSweep, "sweep", false, "删除未被任何音频引用的文件")

	minioCmd.Example = `  # 列出音频文件及统计信息
  audiotheque minio

  # 立即清理孤立的媒体文件
  audiotheque minio --sweep`
}
