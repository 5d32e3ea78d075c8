package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeJSON 缩进输出JSON
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeBookTable 以表格输出图书
func writeBookTable(w io.Writer, books []dto.BookResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPUBLISHED\tCREATED")
	for _, b := range books {
		published := "-"
		if b.PublishedAt != nil {
			published = b.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			b.ID, b.Title, b.Author, published, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
