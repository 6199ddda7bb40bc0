package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

// LinkInput is built from a Telegram update. Handle and ChatID come from the
// platform and cannot be forged by the sender; Email is the optional command
// argument.
type LinkInput struct {
	Handle string
	ChatID int64
	Email  string
}

type LinkOutput struct {
	Result entity.LinkResult
}

// Link binds the sender's chat to the identity registered with their handle.
// Only a missing row or a failing store produce an error; every other outcome
// is a LinkResult.
func (s *Usecase) Link(ctx context.Context, in LinkInput) (_ *LinkOutput, err error) {
	ctx, span := s.startSpan(ctx, "Link")
	defer span.End()

	var result entity.LinkResult
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.String("link.result", result.String()))
			s.count(ctx, s.linkResult, attribute.String("result", result.String()))
		}
	}()

	handle := entity.NormalizeHandle(in.Handle)
	if handle == "" || in.ChatID == 0 {
		slog.WarnContext(ctx, "link request without telegram username", "chat_id", in.ChatID)
		result = entity.LinkResultNotFound
		return &LinkOutput{Result: result}, nil
	}

	identity, err := s.repoDB.GetIdentityByHandle(ctx, handle)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no identity registered for telegram handle", "telegram_handle", handle)
		result = entity.LinkResultNotFound
		return &LinkOutput{Result: result}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by handle", "telegram_handle", handle, "error", err)
		return nil, goerror.NewServer(err)
	}

	if email := strings.TrimSpace(in.Email); email != "" && !strings.EqualFold(email, identity.Email) {
		slog.WarnContext(ctx, "link email does not match identity", "telegram_handle", handle)
		result = entity.LinkResultNotFound
		return &LinkOutput{Result: result}, nil
	}

	result, err = s.bindChannel(ctx, identity, handle, in.ChatID)
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Result: result}, nil
}

func (s *Usecase) bindChannel(ctx context.Context, identity *entity.Identity, handle string, chatID int64) (entity.LinkResult, error) {
	if identity.ChatID != nil {
		return classifyLinked(identity, chatID), nil
	}

	other, err := s.repoDB.GetIdentityByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get identity by chat", "chat_id", chatID, "error", err)
		return 0, goerror.NewServer(err)
	}
	if other != nil && other.ID != identity.ID {
		slog.WarnContext(ctx, "telegram chat already bound to another identity", "chat_id", chatID, "identity_id", identity.ID)
		return entity.LinkResultConflict, nil
	}

	ok, err := s.repoDB.UpdateIdentityChannel(ctx, identity.Email, handle, chatID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update identity channel", "identity_id", identity.ID, "error", err)
		return 0, goerror.NewServer(err)
	}
	if ok {
		slog.InfoContext(ctx, "telegram chat linked", "identity_id", identity.ID, "chat_id", chatID)
		return entity.LinkResultSuccess, nil
	}

	// Lost a race: another update linked this identity, or bound the chat
	// elsewhere, between our read and write.
	current, err := s.repoDB.GetIdentityByEmail(ctx, identity.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "identity_id", identity.ID, "error", err)
		return 0, goerror.NewServer(err)
	}
	if current.ChatID == nil {
		return entity.LinkResultConflict, nil
	}

	return classifyLinked(current, chatID), nil
}

func classifyLinked(identity *entity.Identity, chatID int64) entity.LinkResult {
	if identity.LinkedTo(chatID) {
		return entity.LinkResultAlreadyLinked
	}
	return entity.LinkResultConflict
}
