package cmd

import (
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 Audiotheque 服务器",
	Long:  `启动 HTTP 服务器，提供 API、播放器 WebSocket、媒体代理和 Web 界面`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
