package broadcast

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/wingo/models"
)

// Telegram allows roughly 30 bot messages per second; pacing sends keeps
// a large destination set under that limit.
const sendInterval = 50 * time.Millisecond

// Broadcaster fans a message out to a set of destinations. A failure for
// one destination is logged and skipped so the rest still receive the
// message.
type Broadcaster struct {
	sender  models.Sender
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Broadcaster around the given sender.
func New(sender models.Sender) *Broadcaster {
	return &Broadcaster{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(sendInterval), 1),
		logger:  log.With().Str("component", "broadcast").Logger(),
	}
}

// SendAll delivers text to every destination and reports how many sends
// succeeded. Cancelling the context stops the remaining sends.
func (b *Broadcaster) SendAll(ctx context.Context, destinations []string, text string) int {
	sent := 0
	for _, dest := range destinations {
		if err := b.limiter.Wait(ctx); err != nil {
			return sent
		}
		if err := b.sender.Send(dest, text); err != nil {
			b.logger.Error().Err(err).Str("destination", dest).Msg("Failed to deliver message")
			continue
		}
		sent++
	}
	b.logger.Debug().Int("sent", sent).Int("total", len(destinations)).Msg("Broadcast completed")
	return sent
}
