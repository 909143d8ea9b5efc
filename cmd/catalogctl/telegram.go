package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chancat/channel-catalog-go/internal/source/telegram"

	"github.com/spf13/cobra"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Manage the Telegram sessions",
}

var telegramLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize the collector session",
	Long: `Log the collector account in and store the session file named by
telegram.sessionfile. The login code sent by Telegram is read from stdin.

Example:
  catalogctl telegram login --phone +15550100`,
	Args: cobra.NoArgs,
	RunE: runTelegramLogin,
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.AddCommand(telegramLoginCmd)

	telegramLoginCmd.Flags().String("phone", "", "phone number of the collector account")
	telegramLoginCmd.Flags().String("password", "", "two-step verification password, if enabled")
	_ = telegramLoginCmd.MarkFlagRequired("phone")
}

func runTelegramLogin(cmd *cobra.Command, args []string) error {
	phone, _ := cmd.Flags().GetString("phone")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(cmd.InOrStdin())
	prompt := func(ctx context.Context) (string, error) {
		fmt.Fprint(cmd.OutOrStdout(), "Enter code: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read code: %w", err)
		}
		code := strings.TrimSpace(line)
		if code == "" {
			return "", errors.New("empty code")
		}
		return code, nil
	}

	opts := telegram.CollectorOptions(cfg.Telegram)
	if err := telegram.Login(cmd.Context(), opts, phone, password, prompt, log); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session stored in %s\n", opts.SessionFile)
	return nil
}
