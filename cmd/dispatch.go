package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/justmike1/mentionbot/action"
)

// consoleHost prints replies instead of posting them to a chat.
type consoleHost struct {
	mu  sync.Mutex
	out io.Writer
}

func (h *consoleHost) BotUserID(context.Context) (string, error) {
	return "mentionbot-console", nil
}

func (h *consoleHost) PostMessage(_ context.Context, roomID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "[%s] %s\n", roomID, text)
	return err
}

var dispatchMsg action.Message

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one dispatch cycle for a message and print the replies",
	Long: `Runs the configured actions for a single message as if it had been
posted in a room. Issue and pipeline calls are real; replies are printed
to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateDispatch(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		host := &consoleHost{out: cmd.OutOrStdout()}
		d, closeSettings, err := newDispatcher(cfg, host, logger)
		if err != nil {
			return err
		}
		defer closeSettings()

		rep := d.Handle(cmd.Context(), dispatchMsg)
		out := cmd.OutOrStdout()
		if !rep.Mention.Found() {
			_, _ = fmt.Fprintln(out, "no bot mentioned")
			return nil
		}
		_, _ = fmt.Fprintf(out, "cycle %s: %s mentioned\n", rep.Cycle, rep.Mention.BotID)
		for _, o := range rep.Outcomes {
			switch {
			case !o.Planned && o.Err == nil:
				_, _ = fmt.Fprintf(out, "  %-16s skipped\n", o.Kind)
			case o.Err != nil:
				_, _ = fmt.Fprintf(out, "  %-16s failed: %v\n", o.Kind, o.Err)
			case o.URL != "":
				_, _ = fmt.Fprintf(out, "  %-16s ok %s\n", o.Kind, o.URL)
			default:
				_, _ = fmt.Fprintf(out, "  %-16s ok\n", o.Kind)
			}
		}
		return nil
	},
}

func init() {
	f := dispatchCmd.Flags()
	f.StringVar(&dispatchMsg.Text, "text", "", "message text")
	f.StringVar(&dispatchMsg.ID, "message-id", "", "message id")
	f.StringVar(&dispatchMsg.RoomID, "room", "console", "room id replies are printed for")
	f.StringVar(&dispatchMsg.RoomName, "room-name", "", "room name")
	f.StringVar(&dispatchMsg.RoomTopic, "topic", "", "room topic")
	f.StringVar(&dispatchMsg.SenderUsername, "sender", "", "sender username")
	_ = dispatchCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(dispatchCmd)
}
