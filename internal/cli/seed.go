package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
)

// sampleBooks 示例数据
var sampleBooks = []book.Fields{
	seed("The Go Programming Language", "Alan A. A. Donovan", "Go语言圣经", "2015-10-26"),
	seed("Concurrency in Go", "Katherine Cox-Buday", "Go并发编程的工具与技巧", "2017-07-19"),
	seed("Designing Data-Intensive Applications", "Martin Kleppmann", "数据系统设计", "2017-03-16"),
	seed("Domain-Driven Design", "Eric Evans", "领域驱动设计", "2003-08-22"),
	seed("Clean Architecture", "Robert C. Martin", "", "2017-09-10"),
	seed("The Pragmatic Programmer", "Andrew Hunt", "程序员修炼之道", "1999-10-20"),
	seed("Refactoring", "Martin Fowler", "重构：改善既有代码的设计", "2018-11-20"),
	seed("Site Reliability Engineering", "Betsy Beyer", "", ""),
}

func seed(title, author, description, publishedAt string) book.Fields {
	f := book.Fields{Title: title, Author: author}
	if description != "" {
		f.Description = &description
	}
	if publishedAt != "" {
		t, err := time.Parse("2006-01-02", publishedAt)
		if err != nil {
			panic(err)
		}
		f.PublishedAt = &t
	}
	return f
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "写入示例图书",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > len(sampleBooks) {
				return fmt.Errorf("count必须在1到%d之间", len(sampleBooks))
			}

			c, _, _, cleanup, err := opts.open()
			if err != nil {
				return err
			}
			defer cleanup()

			created := make([]dto.BookResponse, 0, count)
			for _, f := range sampleBooks[:count] {
				b, err := c.Service.CreateBook(cmd.Context(), f)
				if err != nil {
					return fmt.Errorf("写入《%s》失败: %w", f.Title, err)
				}
				created = append(created, dto.NewBookResponse(b))
			}

			if opts.Format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ 已写入%d本图书\n", len(created))
			return writeBookTable(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", len(sampleBooks), "写入数量")
	return cmd
}
