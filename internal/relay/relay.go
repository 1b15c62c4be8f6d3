// Package relay receives raw signal messages, parses them and hands the
// resulting intents to the router.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alpharai/internal/signal"
	"alpharai/internal/types"
)

// IntentRouter is the downstream consumer of parsed intents.
type IntentRouter interface {
	Route(ctx context.Context, intent types.TradeIntent) error
}

// Envelope wraps one raw message with its delivery metadata so every log
// line of one signal's journey shares an id.
type Envelope struct {
	ID         uuid.UUID
	Source     string
	ReceivedAt time.Time
	Text       string
}

func NewEnvelope(source, text string) Envelope {
	return Envelope{
		ID:         uuid.New(),
		Source:     source,
		ReceivedAt: time.Now().UTC(),
		Text:       text,
	}
}

// Relay is the shared parse-and-route core behind every signal source.
type Relay struct {
	parser *signal.Parser
	router IntentRouter
	log    *slog.Logger
}

func New(router IntentRouter, log *slog.Logger) *Relay {
	return &Relay{parser: signal.NewParser(), router: router, log: log}
}

// Handle parses and routes one envelope. Messages that parse in neither
// dialect are dropped with a warning; chatter is expected on shared
// channels.
func (r *Relay) Handle(ctx context.Context, env Envelope) error {
	intent, err := r.parser.Parse(env.Text)
	if err != nil {
		var parseErr *types.ParseError
		if errors.As(err, &parseErr) {
			r.log.WarnContext(ctx, "unparseable message dropped",
				"signal_id", env.ID, "source", env.Source, "error", err)
			return nil
		}
		return err
	}

	r.log.InfoContext(ctx, "signal parsed",
		"signal_id", env.ID,
		"source", env.Source,
		"symbol", intent.Symbol,
		"direction", intent.Direction,
		"timeframe_minutes", intent.TimeframeMinutes,
	)

	if err := r.router.Route(ctx, intent); err != nil {
		r.log.ErrorContext(ctx, "routing failed",
			"signal_id", env.ID, "symbol", intent.Symbol, "error", err)
		return err
	}
	return nil
}
