package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/idempotency"
)

const (
	botCommandStart = "start"
	botCommandAuth  = "auth"
)

// ForwardTelegramUpdate hands an update received by the bot gateway to the
// broker. Updates without text or chat are dropped.
func (s *Usecase) ForwardTelegramUpdate(ctx context.Context, in TelegramUpdateEvent) error {
	ctx, span := s.startSpan(ctx, "ForwardTelegramUpdate")
	defer span.End()

	if in.ChatID == 0 || strings.TrimSpace(in.Text) == "" {
		return nil
	}

	if err := s.repoMessaging.PublishTelegramUpdate(ctx, in); err != nil {
		slog.ErrorContext(ctx, "failed to publish telegram update", "update_id", in.UpdateID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

type TelegramUpdateInput struct {
	UpdateID  int64
	ChatID    int64
	Username  string
	FirstName string
	Text      string
}

// HandleTelegramUpdate runs the bot command carried by an update at most once
// per update id.
func (s *Usecase) HandleTelegramUpdate(ctx context.Context, in TelegramUpdateInput) error {
	ctx, span := s.startSpan(ctx, "HandleTelegramUpdate")
	defer span.End()

	key := "identity:telegram_update:" + strconv.FormatInt(in.UpdateID, 10)
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.runBotCommand(ctx, in)
	}, idempotency.WithStateTTL(s.cfg.GetSecond("modules.identity.update_idempotency")))

	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "telegram update already handled", "update_id", in.UpdateID, "error", err)
		return nil
	}

	return err
}

func (s *Usecase) runBotCommand(ctx context.Context, in TelegramUpdateInput) error {
	cmd, arg := parseBotCommand(in.Text, s.botUsername)

	var reply string
	switch cmd {
	case botCommandStart:
		reply = fmt.Sprintf("Welcome to SecureAuth, %s!\nTo link your account, use the command: auth <your email>", in.FirstName)

	case botCommandAuth:
		out, err := s.Link(ctx, LinkInput{Handle: in.Username, ChatID: in.ChatID, Email: arg})
		if err != nil {
			return err
		}
		reply = out.Result.Reply()

	default:
		return nil
	}

	// The link is already stored; a lost reply is not worth a redelivery.
	if err := s.repoTelegram.SendText(ctx, in.ChatID, reply); err != nil {
		slog.ErrorContext(ctx, "failed to reply to telegram command", "command", cmd, "chat_id", in.ChatID, "error", err)
	}

	return nil
}

// parseBotCommand accepts "/cmd", "/cmd@bot" and a bare "cmd" word, case
// insensitive, and returns the command with its first argument.
func parseBotCommand(text, botUsername string) (cmd, arg string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}

	cmd = fields[0]
	if strings.HasPrefix(cmd, "/") {
		cmd = cmd[1:]
		if name, at, ok := strings.Cut(cmd, "@"); ok {
			if botUsername != "" && !strings.EqualFold(at, botUsername) {
				return "", ""
			}
			cmd = name
		}
	}
	cmd = strings.ToLower(cmd)

	if len(fields) > 1 {
		arg = fields[1]
	}

	return cmd, arg
}
