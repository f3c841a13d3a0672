// Package verification generates email-verification tokens and hands the
// resulting links off to the mail queue.
package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
)

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// NewToken returns a high-entropy random token encoded as hex.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("verification.NewToken: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// SendLink publishes the verification link for token to the mail queue.
// A publish failure is logged but not returned: the token is already
// persisted and the user can request a resend.
func SendLink(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	baseURL, email, token string,
) {
	link := fmt.Sprintf("%s/auth/verify?token=%s", baseURL, token)

	msg := models.Message{
		Email:   email,
		Link:    link,
		Purpose: "email_verification",
	}

	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish verification link", sl.Err(err))
	}
}
