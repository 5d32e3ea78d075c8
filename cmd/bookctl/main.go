// bookctl 图书目录运维命令行
package main

import (
	"os"

	"github.com/xiebiao/bookcatalog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
