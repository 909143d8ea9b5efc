// Package telegram implements the channel data source and the digest
// reporter on top of MTProto.
package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
)

// ErrUnauthorized is returned when a user session has not been logged in.
var ErrUnauthorized = errors.New("telegram session is not authorized")

// Options configures one MTProto session.
type Options struct {
	AppID         int
	AppHash       string
	SessionFile   string
	BotToken      string
	ProxyAddr     string
	ProxyUser     string
	ProxyPassword string
}

// CollectorOptions returns the options of the user session that reads channels.
func CollectorOptions(cfg config.TelegramConfig) Options {
	return Options{
		AppID:         cfg.AppID,
		AppHash:       cfg.AppHash,
		SessionFile:   cfg.SessionFile,
		ProxyAddr:     cfg.ProxyAddr,
		ProxyUser:     cfg.ProxyUser,
		ProxyPassword: cfg.ProxyPassword,
	}
}

// ReporterOptions returns the options of the bot session that posts digests.
func ReporterOptions(cfg config.TelegramConfig) Options {
	opts := CollectorOptions(cfg)
	opts.SessionFile = cfg.BotSession
	opts.BotToken = cfg.BotToken
	return opts
}

// NewClient builds an MTProto client with file session storage and an
// optional SOCKS5 dialer.
func NewClient(opts Options, log *zap.Logger) (*telegram.Client, error) {
	if opts.AppID == 0 || opts.AppHash == "" {
		return nil, errors.New("telegram app id and app hash are required")
	}

	tgOpts := telegram.Options{
		Logger: logger.OrNop(log).Named("mtproto"),
	}
	if opts.SessionFile != "" {
		tgOpts.SessionStorage = &telegram.FileSessionStorage{Path: opts.SessionFile}
	}

	if opts.ProxyAddr != "" {
		var auth *proxy.Auth
		if opts.ProxyUser != "" || opts.ProxyPassword != "" {
			auth = &proxy.Auth{User: opts.ProxyUser, Password: opts.ProxyPassword}
		}
		d, err := proxy.SOCKS5("tcp", opts.ProxyAddr, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("proxy dialer: %w", err)
		}
		dc, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("proxy dialer missing context")
		}
		tgOpts.Resolver = dcs.Plain(dcs.PlainOptions{Dial: dc.DialContext})
	}

	return telegram.NewClient(opts.AppID, opts.AppHash, tgOpts), nil
}

// Conn is a running MTProto session.
type Conn struct {
	api    *tg.Client
	cancel context.CancelFunc
	done   chan error
}

// API returns the raw API client.
func (c *Conn) API() *tg.Client {
	return c.api
}

// Close stops the session and waits for it to exit.
func (c *Conn) Close() error {
	c.cancel()
	err := <-c.done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Connect starts a session in the background and returns once it is
// authorized. Bot sessions log in with the token when needed; user sessions
// must have been authorized beforehand with Login.
func Connect(ctx context.Context, opts Options, log *zap.Logger) (*Conn, error) {
	log = logger.OrNop(log)

	client, err := NewClient(opts, log)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- client.Run(runCtx, func(ctx context.Context) error {
			if err := authorize(ctx, client, opts); err != nil {
				return err
			}
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
		log.Info("telegram session ready", zap.Bool("bot", opts.BotToken != ""))
		return &Conn{api: client.API(), cancel: cancel, done: done}, nil
	case err := <-done:
		cancel()
		return nil, fmt.Errorf("telegram connect: %w", err)
	case <-ctx.Done():
		cancel()
		<-done
		return nil, ctx.Err()
	}
}

func authorize(ctx context.Context, client *telegram.Client, opts Options) error {
	status, err := client.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("auth status: %w", err)
	}
	if status.Authorized {
		return nil
	}
	if opts.BotToken == "" {
		return ErrUnauthorized
	}
	if _, err := client.Auth().Bot(ctx, opts.BotToken); err != nil {
		return fmt.Errorf("bot login: %w", err)
	}
	return nil
}
