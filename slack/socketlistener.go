package slack

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// SocketListener connects to Slack via Socket Mode (outbound WebSocket) and
// passes channel messages to a handler. No inbound URL is needed.
type SocketListener struct {
	smClient   *socketmode.Client
	client     *Client
	handler    MessageHandler
	logger     *slog.Logger
	connected  atomic.Bool
	eventCount atomic.Int64
}

// NewSocketListener creates a Socket Mode listener on client, which must
// have been created with slack.OptionAppLevelToken.
func NewSocketListener(client *Client, handler MessageHandler, debug bool, logger *slog.Logger) *SocketListener {
	logger = logger.With("component", "socket-mode")

	var opts []socketmode.Option
	if debug {
		opts = append(opts,
			socketmode.OptionDebug(true),
			socketmode.OptionLog(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)),
		)
	}

	return &SocketListener{
		smClient: socketmode.New(client.api, opts...),
		client:   client,
		handler:  handler,
		logger:   logger,
	}
}

// Run connects to Slack and processes events until ctx is cancelled. It
// reconnects automatically on disconnection.
func (sl *SocketListener) Run(ctx context.Context) error {
	go sl.handleEvents(ctx)

	sl.logger.Info("connecting to Slack")
	return sl.smClient.RunContext(ctx)
}

func (sl *SocketListener) handleEvents(ctx context.Context) {
	for {
		var evt socketmode.Event
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sl.smClient.Events:
			if !ok {
				sl.logger.Info("event channel closed, listener stopped")
				return
			}
			evt = e
		}
		sl.eventCount.Add(1)

		switch evt.Type {
		case socketmode.EventTypeConnecting:
			if sl.connected.Load() {
				sl.logger.Info("reconnecting")
			}

		case socketmode.EventTypeConnected:
			if !sl.connected.Swap(true) {
				sl.logger.Info("connected", "events_processed", sl.eventCount.Load())
			}

		case socketmode.EventTypeConnectionError:
			sl.connected.Store(false)
			sl.logger.Warn("connection error, will retry")

		case socketmode.EventTypeEventsAPI:
			// Ack first so Slack does not redeliver.
			if evt.Request != nil {
				sl.smClient.Ack(*evt.Request)
			}
			event, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				sl.logger.Warn("unexpected events api payload", "type", fmt.Sprintf("%T", evt.Data))
				continue
			}
			sl.handleEventsAPI(ctx, event)

		default:
			if evt.Request != nil {
				sl.smClient.Ack(*evt.Request)
			}
		}
	}
}

func (sl *SocketListener) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		sl.logger.Debug("skipping non-callback event", "type", event.Type)
		return
	}

	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		sl.logger.Debug("skipping inner event", "type", event.InnerEvent.Type)
		return
	}
	if !accept(ev) {
		sl.logger.Debug("skipping message", "subtype", ev.SubType)
		return
	}

	go func() {
		sl.handler(ctx, sl.client.Inbound(ctx, ev))
	}()
}
