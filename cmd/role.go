package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"Audiotheque/core/role"

	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role [email...]",
	Short: "显示邮箱对应的角色",
	Long:  `根据 ADMIN_EMAILS、PRIVILEGED_EMAILS 和 ROLES_FILE 解析角色。不带参数时列出所有已配置的邮箱。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		resolver := role.NewResolver(cfg.AdminEmails, cfg.PrivilegedEmails)
		if cfg.RolesFile != "" {
			if err := resolver.Reload(cfg.RolesFile); err != nil {
				return fmt.Errorf("load roles file: %w", err)
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		if len(args) > 0 {
			for _, email := range args {
				r := resolver.Resolve(email)
				fmt.Fprintf(w, "%s\t%s\t%s\n", email, r, r.Label())
			}
			return nil
		}

		entries := resolver.Entries()
		emails := make([]string, 0, len(entries))
		for email := range entries {
			emails = append(emails, email)
		}
		sort.Strings(emails)
		for _, email := range emails {
			r := entries[email]
			fmt.Fprintf(w, "%s\t%s\t%s\n", email, r, r.Label())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roleCmd)
}
