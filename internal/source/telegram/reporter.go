package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chancat/channel-catalog-go/internal/publisher"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// MaxMessageLength is the Telegram limit for one text message.
const MaxMessageLength = 4096

// Reporter posts every digest section to the report channel.
type Reporter struct {
	sender *message.Sender
	target string
	pause  time.Duration
	policy RetryPolicy
	logger *zap.Logger
}

var _ publisher.Notifier = (*Reporter)(nil)

// NewReporter creates a Reporter sending as the session behind api.
// target is a channel handle or t.me link.
func NewReporter(api *tg.Client, target string, pause time.Duration, policy RetryPolicy, log *zap.Logger) *Reporter {
	return &Reporter{
		sender: message.NewSender(api),
		target: target,
		pause:  pause,
		policy: policy,
		logger: logger.OrNop(log),
	}
}

// Name implements publisher.Notifier.
func (r *Reporter) Name() string { return "telegram" }

// Notify implements publisher.Notifier. Sections go out in order, one or
// more messages each, with a pause between consecutive messages.
func (r *Reporter) Notify(ctx context.Context, d *digest.Digest) error {
	sent := 0
	for _, section := range d.Sections {
		for _, chunk := range SplitMessage(section.HTML, MaxMessageLength) {
			if sent > 0 {
				if err := sleep(ctx, r.pause); err != nil {
					return err
				}
			}

			err := retry(ctx, r.policy, "messages.sendMessage", r.logger, func(ctx context.Context) error {
				_, sendErr := r.sender.Resolve(r.target).NoWebpage().StyledText(ctx, html.String(nil, chunk))
				return sendErr
			})
			if err != nil {
				return fmt.Errorf("send %s section: %w", section.Category, err)
			}
			sent++
		}
	}

	r.logger.Info("digest posted",
		zap.String("digest_id", d.ID.String()),
		zap.String("target", r.target),
		zap.Int("messages", sent),
	)
	return nil
}

// SplitMessage cuts text into chunks of at most limit runes, breaking at
// line boundaries. A single line longer than limit is cut hard.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if chunk := strings.Trim(cur.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()

	return chunks
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
