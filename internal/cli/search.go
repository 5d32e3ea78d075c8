package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
)

// SearchResult search命令的JSON输出
// 比HTTP响应多一个mode字段，标明实际使用的匹配方式
type SearchResult struct {
	dto.ListBooksResponse
	Mode string `json:"mode"`
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "分页查询图书(正则优先，非法正则改用子串匹配)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var term string
			if len(args) == 1 {
				term = args[0]
			}

			c, _, _, cleanup, err := opts.open()
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := c.ListBooks.Execute(cmd.Context(), appbook.ListBooksRequest{
				Page:   page,
				Limit:  limit,
				Search: term,
			})
			if err != nil {
				return fmt.Errorf("查询失败: %w", err)
			}

			result := SearchResult{
				ListBooksResponse: dto.ListBooksResponse{
					Books: dto.NewBookResponses(resp.Books),
					Pagination: dto.PaginationResponse{
						Page:       resp.Pagination.Page,
						Limit:      resp.Pagination.Limit,
						Total:      resp.Pagination.Total,
						TotalPages: resp.Pagination.TotalPages,
					},
				},
				Mode: resp.Mode.String(),
			}

			out := cmd.OutOrStdout()
			if opts.Format == FormatJSON {
				return writeJSON(out, result)
			}
			if err := writeBookTable(out, result.Books); err != nil {
				return err
			}
			p := result.Pagination
			fmt.Fprintf(out, "\n第%d/%d页，共%d条(匹配方式: %s)\n", p.Page, p.TotalPages, p.Total, result.Mode)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "页码")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "每页数量(0表示使用配置的默认值)")
	return cmd
}
