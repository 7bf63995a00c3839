package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	tokens "github.com/dropDatabas3/incidentauth/internal/security/token"
)

// tempTokenBytes es la entropía del temp token de MFA.
const tempTokenBytes = 32

// IssuedChallenge son los valores crudos que se entregan una sola vez:
// TempToken va a la respuesta HTTP y OTP al Notifier. No se loguean.
type IssuedChallenge struct {
	ChallengeID string
	TempToken   string
	OTP         string
	ExpiresAt   time.Time
}

// ChallengeIssuer crea challenges MFA y persiste sólo sus digests.
type ChallengeIssuer struct {
	repo  repository.ChallengeRepository
	clock Clock
}

func NewChallengeIssuer(repo repository.ChallengeRepository, clock Clock) *ChallengeIssuer {
	return &ChallengeIssuer{repo: repo, clock: clock}
}

func (c *ChallengeIssuer) Create(ctx context.Context, userID string, validity time.Duration) (*IssuedChallenge, error) {
	temp, err := tokens.GenerateOpaqueToken(tempTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate temp token: %w", err)
	}
	otp, err := tokens.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	now := c.clock.now()
	exp := now.Add(validity)
	ch, err := c.repo.Create(ctx, repository.CreateChallengeInput{
		UserID:        userID,
		TempTokenHash: tokens.SHA256Base64(temp),
		OTPHash:       tokens.SHA256Base64(otp),
		ExpiresAt:     exp,
		OTPExpiresAt:  exp,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("persist challenge: %w", err)
	}
	return &IssuedChallenge{ChallengeID: ch.ID, TempToken: temp, OTP: otp, ExpiresAt: exp}, nil
}
