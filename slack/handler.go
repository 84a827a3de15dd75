package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	slacklib "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const maxEventBody = 1 << 20

// EventsHandler receives Slack Events API callbacks over HTTP. Requests are
// verified against the app's signing secret.
type EventsHandler struct {
	signingSecret string
	client        *Client
	handler       MessageHandler
	logger        *slog.Logger
}

// NewEventsHandler creates a handler that passes accepted messages to handler.
func NewEventsHandler(signingSecret string, client *Client, handler MessageHandler, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		signingSecret: signingSecret,
		client:        client,
		handler:       handler,
		logger:        logger.With("component", "events-api"),
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		h.logger.Warn("failed to read request body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	verifier, err := slacklib.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		h.logger.Warn("failed to create secrets verifier", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := verifier.Write(body); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := verifier.Ensure(); err != nil {
		h.logger.Warn("signature verification failed", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Warn("failed to parse event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		w.WriteHeader(http.StatusOK)

		// Redeliveries follow a slow ack; the first delivery is already
		// being handled.
		if r.Header.Get("X-Slack-Retry-Num") != "" {
			h.logger.Debug("ignoring redelivery", "reason", r.Header.Get("X-Slack-Retry-Reason"))
			return
		}

		ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok || !accept(ev) {
			return
		}
		ctx := context.WithoutCancel(r.Context())
		go func() {
			h.handler(ctx, h.client.Inbound(ctx, ev))
		}()

	default:
		w.WriteHeader(http.StatusOK)
	}
}
