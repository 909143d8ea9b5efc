package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// CodePrompt asks the operator for the login code Telegram just sent.
type CodePrompt func(ctx context.Context) (string, error)

// Login authorizes the user session stored in opts.SessionFile. password is
// the two-step verification password and may be empty.
func Login(ctx context.Context, opts Options, phone, password string, prompt CodePrompt, log *zap.Logger) error {
	client, err := NewClient(opts, log)
	if err != nil {
		return err
	}

	return client.Run(ctx, func(ctx context.Context) error {
		codeAuth := auth.CodeAuthenticatorFunc(func(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
			return prompt(ctx)
		})
		flow := auth.NewFlow(auth.Constant(phone, password, codeAuth), auth.SendCodeOptions{})

		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		return nil
	})
}
