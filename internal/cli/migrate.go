package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "自动迁移books表结构",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, cleanup, err := opts.open()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Handle.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("迁移失败: %w", err)
			}

			if opts.Format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "migrated"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ books表已迁移")
			return nil
		},
	}
}
