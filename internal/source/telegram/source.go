package telegram

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/source"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// DefaultPageSize is the history page requested per call.
const DefaultPageSize = 100

// notFoundErrors resolve to source.ErrChannelNotFound.
var notFoundErrors = []string{
	"USERNAME_NOT_OCCUPIED",
	"USERNAME_INVALID",
	"CHANNEL_PRIVATE",
	"CHANNEL_INVALID",
}

// Source reads public channels with a user session.
type Source struct {
	api      *tg.Client
	policy   RetryPolicy
	pageSize int
	logger   *zap.Logger

	mu    sync.Mutex
	peers map[string]resolvedChannel
}

type resolvedChannel struct {
	input *tg.InputChannel
	title string
}

var _ source.Source = (*Source)(nil)

// NewSource creates a Source on top of a connected API client.
func NewSource(api *tg.Client, policy RetryPolicy, log *zap.Logger) *Source {
	return &Source{
		api:      api,
		policy:   policy,
		pageSize: DefaultPageSize,
		logger:   logger.OrNop(log),
		peers:    make(map[string]resolvedChannel),
	}
}

// FetchChannelInfo implements source.Source.
func (s *Source) FetchChannelInfo(ctx context.Context, handle string) (*source.ChannelInfo, error) {
	ch, err := s.resolve(ctx, handle)
	if err != nil {
		return nil, err
	}

	var full *tg.MessagesChatFull
	err = retry(ctx, s.policy, "channels.getFullChannel", s.logger, func(ctx context.Context) error {
		var callErr error
		full, callErr = s.api.ChannelsGetFullChannel(ctx, ch.input)
		return callErr
	})
	if err != nil {
		return nil, mapError(err)
	}

	channelFull, ok := full.FullChat.(*tg.ChannelFull)
	if !ok {
		return nil, fmt.Errorf("unexpected full chat type %T", full.FullChat)
	}

	// The cached title may be stale; the full response carries the current one.
	if fresh, ok := channelByID(full.Chats, ch.input.ChannelID); ok {
		ch.title = fresh.Title
	}

	return channelInfo(handle, ch, channelFull), nil
}

// FetchRecentMessages implements source.Source.
func (s *Source) FetchRecentMessages(ctx context.Context, handle string, since time.Time) iter.Seq2[source.Message, error] {
	return func(yield func(source.Message, error) bool) {
		ch, err := s.resolve(ctx, handle)
		if err != nil {
			yield(source.Message{}, err)
			return
		}
		peer := &tg.InputPeerChannel{ChannelID: ch.input.ChannelID, AccessHash: ch.input.AccessHash}

		offsetID := 0
		for {
			var res tg.MessagesMessagesClass
			err := retry(ctx, s.policy, "messages.getHistory", s.logger, func(ctx context.Context) error {
				var callErr error
				res, callErr = s.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
					Peer:     peer,
					OffsetID: offsetID,
					Limit:    s.pageSize,
				})
				return callErr
			})
			if err != nil {
				yield(source.Message{}, mapError(err))
				return
			}

			page := historyMessages(res)
			for _, m := range page.messages {
				msg := convertMessage(m)
				if msg.Timestamp.Before(since) {
					return
				}
				if !yield(msg, nil) {
					return
				}
			}

			// Service messages count toward the page and the offset even
			// though they are not yielded.
			if page.raw < s.pageSize || page.lastID == 0 {
				return
			}
			offsetID = page.lastID
		}
	}
}

func (s *Source) resolve(ctx context.Context, handle string) (resolvedChannel, error) {
	username := models.Username(handle)

	s.mu.Lock()
	cached, ok := s.peers[username]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	var resolved *tg.ContactsResolvedPeer
	err := retry(ctx, s.policy, "contacts.resolveUsername", s.logger, func(ctx context.Context) error {
		var callErr error
		resolved, callErr = s.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
		return callErr
	})
	if err != nil {
		return resolvedChannel{}, mapError(err)
	}

	ch, ok := broadcastChannel(resolved.Chats)
	if !ok {
		return resolvedChannel{}, source.ErrChannelNotFound
	}

	rc := resolvedChannel{
		input: &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
		title: ch.Title,
	}
	s.mu.Lock()
	s.peers[username] = rc
	s.mu.Unlock()

	return rc, nil
}

func mapError(err error) error {
	if tgerr.Is(err, notFoundErrors...) {
		return fmt.Errorf("%w: %w", source.ErrChannelNotFound, err)
	}
	return err
}

// broadcastChannel picks the first broadcast channel, skipping megagroups.
func broadcastChannel(chats []tg.ChatClass) (*tg.Channel, bool) {
	for _, c := range chats {
		ch, ok := c.(*tg.Channel)
		if !ok || ch.Megagroup {
			continue
		}
		if ch.Broadcast {
			return ch, true
		}
	}
	return nil, false
}

func channelByID(chats []tg.ChatClass, id int64) (*tg.Channel, bool) {
	for _, c := range chats {
		if ch, ok := c.(*tg.Channel); ok && ch.ID == id {
			return ch, true
		}
	}
	return nil, false
}

func channelInfo(handle string, ch resolvedChannel, full *tg.ChannelFull) *source.ChannelInfo {
	info := &source.ChannelInfo{
		ID:          ch.input.ChannelID,
		Handle:      handle,
		Title:       ch.title,
		Description: full.About,
	}
	if n, ok := full.GetParticipantsCount(); ok {
		info.Subscribers = int64(n)
	}
	return info
}

// historyPage is one messages.getHistory result. raw and lastID cover every
// entry the server returned, messages only the posts.
type historyPage struct {
	messages []*tg.Message
	raw      int
	lastID   int
}

func historyMessages(res tg.MessagesMessagesClass) historyPage {
	var raw []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesMessages:
		raw = r.Messages
	}

	page := historyPage{messages: make([]*tg.Message, 0, len(raw)), raw: len(raw)}
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			page.messages = append(page.messages, msg)
		}
	}
	if len(raw) > 0 {
		page.lastID = raw[len(raw)-1].GetID()
	}
	return page
}

func convertMessage(m *tg.Message) source.Message {
	msg := source.Message{
		ID:        int64(m.ID),
		Timestamp: time.Unix(int64(m.Date), 0).UTC(),
		Text:      m.Message,
	}
	if v, ok := m.GetViews(); ok {
		msg.Views = int64(v)
	}
	if f, ok := m.GetForwards(); ok {
		msg.Forwards = int64(f)
	}
	if r, ok := m.GetReactions(); ok {
		for _, rc := range r.Results {
			msg.Reactions += int64(rc.Count)
		}
	}
	return msg
}
