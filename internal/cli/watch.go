package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/messaging"
	"github.com/xiebiao/bookcatalog/pkg/mq"
)

func newWatchCommand(opts *RootOptions) *cobra.Command {
	var queue string
	var keys []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "订阅并打印图书变更事件(需要events.enabled)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			if !cfg.Events.Enabled {
				return errors.New("未启用事件发布(events.enabled=false)")
			}

			consumer, err := mq.NewConsumer(cfg.Events.URL, cfg.Events.Exchange, messaging.ExchangeType, queue, keys, log)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "正在监听 %s %v，按Ctrl+C退出\n", cfg.Events.Exchange, keys)
			err = consumer.Consume(ctx, func(_ context.Context, d mq.Delivery) error {
				return printEvent(opts.Format, out, d)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&queue, "queue", "q", "", "队列名(为空时使用临时队列)")
	cmd.Flags().StringSliceVarP(&keys, "key", "k", []string{"book.*"}, "routing key")
	return cmd
}

// printEvent 输出一条事件
// 无法解析的消息原样输出，不阻塞后续消息
func printEvent(format string, w io.Writer, d mq.Delivery) error {
	if format == FormatJSON {
		_, err := fmt.Fprintln(w, string(d.Body))
		return err
	}

	var msg messaging.BookMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		_, err := fmt.Fprintf(w, "%s\t%s\n", d.RoutingKey, string(d.Body))
		return err
	}

	title := "-"
	if msg.Book != nil {
		title = msg.Book.Title
	}
	_, err := fmt.Fprintf(w, "%s\t%s\tid=%d\t%s\n",
		msg.OccurredAt.Format("2006-01-02 15:04:05"), msg.Type, msg.BookID, title)
	return err
}
