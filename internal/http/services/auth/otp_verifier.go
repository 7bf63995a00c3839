package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	tokens "github.com/dropDatabas3/incidentauth/internal/security/token"
)

// OtpVerifier valida un par temp token + OTP contra el challenge guardado.
type OtpVerifier struct {
	repo        repository.ChallengeRepository
	clock       Clock
	maxAttempts int
}

func NewOtpVerifier(repo repository.ChallengeRepository, clock Clock, maxAttempts int) *OtpVerifier {
	if maxAttempts <= 0 {
		maxAttempts = MaxOTPAttempts
	}
	return &OtpVerifier{repo: repo, clock: clock, maxAttempts: maxAttempts}
}

// Verify devuelve el challenge ya marcado como verificado.
//
// Orden: lookup por digest (gana el más reciente), chequeos de estado,
// incremento atómico del contador (que puede bloquear), comparación del
// OTP y consumo condicional. El bloqueo depende sólo del contador: un OTP
// correcto en el sexto intento también falla.
func (v *OtpVerifier) Verify(ctx context.Context, tempToken, otp string) (*repository.MfaChallenge, error) {
	if tempToken == "" || otp == "" {
		return nil, authErr(msgInvalidChallenge, errChallengeMissing)
	}
	now := v.clock.now()

	ch, err := v.repo.GetLatestByTempTokenHash(ctx, tokens.SHA256Base64(tempToken))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, authErr(msgInvalidChallenge, errChallengeMissing)
		}
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if err := checkUsable(ch, now); err != nil {
		return nil, authErr(msgInvalidChallenge, err)
	}

	res, err := v.repo.RegisterAttempt(ctx, ch.ID, now, v.maxAttempts)
	if err != nil {
		if repository.IsNotFound(err) {
			// otro request lo bloqueó/consumió entre el lookup y el update
			return nil, authErr(msgInvalidChallenge, errChallengeLocked)
		}
		return nil, fmt.Errorf("register attempt: %w", err)
	}
	if res.Locked {
		return nil, authErr(msgTooManyAttempts, errChallengeLocked)
	}

	if !tokens.EqualDigest(tokens.SHA256Base64(otp), ch.OTPHash) {
		return nil, authErr(msgInvalidChallenge, errOTPMismatch)
	}

	if err := v.repo.MarkVerified(ctx, ch.ID, now); err != nil {
		if repository.IsNotFound(err) {
			return nil, authErr(msgInvalidChallenge, errChallengeUsed)
		}
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	ch.Attempts = res.Attempts
	ch.VerifiedAt = &now
	return ch, nil
}

func checkUsable(ch *repository.MfaChallenge, now time.Time) error {
	switch {
	case ch.IsLocked:
		return errChallengeLocked
	case ch.VerifiedAt != nil:
		return errChallengeUsed
	case !now.Before(ch.ExpiresAt):
		return errChallengeExpired
	case !now.Before(ch.OTPExpiresAt):
		return errOTPExpired
	}
	return nil
}
