package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"realtychat/internal/app"
	"realtychat/internal/config"
	"realtychat/internal/logging"
	"realtychat/internal/model"
	"realtychat/internal/repository"
	"realtychat/internal/utils"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "realtyctl",
		Short:         "Operate the property chat engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newParseCmd(), newChatCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			repo, err := repository.NewPostgresRepository(cfg.GetPostgreSQLDSN(), 2, 1, cfg.Search.PageSize)
			if err != nil {
				return err
			}
			defer repo.Close()

			applied, err := repository.Migrate(cmd.Context(), repo.DB())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "Applied %s\n", v)
			}
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	var vocabFile string
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Print the intent and slots extracted from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := app.NewParser(config.NLPConfig{VocabularyFile: vocabFile})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(parser.Parse(strings.Join(args, " ")))
		},
	}
	cmd.Flags().StringVar(&vocabFile, "vocabulary", "", "YAML file extending the built-in vocabulary")
	return cmd
}

func newChatCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the engine interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(config.LoggingConfig{Level: "warn", Format: "console"})
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return runREPL(cmd.Context(), a.Chat, sessionID, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume an existing session id")
	return cmd
}

type turnHandler interface {
	HandleTurn(ctx context.Context, sessionID, text string) (*model.TurnResult, error)
}

// runREPL reads one utterance per line until EOF or "exit"
func runREPL(ctx context.Context, chat turnHandler, sessionID string, in io.Reader, out io.Writer, logger *zap.Logger) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		res, err := chat.HandleTurn(ctx, sessionID, line)
		if err != nil {
			return err
		}
		if sessionID == "" {
			sessionID = res.SessionID
			logger.Debug("Session started", zap.String("session_id", sessionID))
		}
		renderReply(out, res.Reply)
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

func renderReply(w io.Writer, r model.Reply) {
	switch r.Type {
	case model.ReplyCards:
		if r.Preface != "" {
			fmt.Fprintln(w, r.Preface)
		}
		for _, card := range r.Items {
			price := "price on request"
			if card.Price != nil {
				price = utils.FormatLKR(*card.Price)
			}
			line := fmt.Sprintf("  #%d %s | %s | %s", card.ID, card.Title, card.Subtitle, price)
			if card.Badge != "" {
				line += " [" + card.Badge + "]"
			}
			fmt.Fprintln(w, line)
		}
	case model.ReplyInvestments:
		fmt.Fprintln(w, r.Content)
		for _, inv := range r.Investments {
			fmt.Fprintf(w, "  - %s\n", inv.Name)
		}
	default:
		fmt.Fprintln(w, r.Content)
	}
}
