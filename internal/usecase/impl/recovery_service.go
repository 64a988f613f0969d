package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"credvault/config"
	deliverycontext "credvault/internal/delivery/context"
	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/repository"
	"credvault/internal/domain/service"
	"credvault/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// recoveryService implements the RecoveryUsecase interface. It owns the whole
// reset token lifecycle: issue, validate, redeem, purge.
type recoveryService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	tokenRepo   repository.ResetTokenRepository
	hasher      service.PasswordHasher
	policy      service.PasswordPolicy
	tokenGen    service.TokenGenerator
	mailer      service.Mailer
	clock       service.Clock

	tokenTTL    time.Duration
	baseURL     string
	maxAttempts int

	logger *slog.Logger
}

// RecoveryServiceParams holds dependencies for recoveryService, injected by Fx.
type RecoveryServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	TokenRepo   repository.ResetTokenRepository
	Hasher      service.PasswordHasher
	Policy      service.PasswordPolicy
	TokenGen    service.TokenGenerator
	Mailer      service.Mailer
	Clock       service.Clock
	Config      *config.Config
	Logger      *slog.Logger
}

// NewRecoveryService is the constructor for recoveryService.
func NewRecoveryService(params RecoveryServiceParams) usecase.RecoveryUsecase {
	return &recoveryService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		tokenRepo:   params.TokenRepo,
		hasher:      params.Hasher,
		policy:      params.Policy,
		tokenGen:    params.TokenGen,
		mailer:      params.Mailer,
		clock:       params.Clock,
		tokenTTL:    params.Config.Reset.TokenTTL,
		baseURL:     params.Config.Reset.BaseURL,
		maxAttempts: params.Config.Reset.MaxGenerateAttempts,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *recoveryService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RequestReset issues a reset token for the account behind the email and sends
// the reset link. The token is committed before the mail goes out; a delivery
// failure is logged and does not void the token.
func (srv *recoveryService) RequestReset(ctx context.Context, input *usecase.RequestResetInput) (*usecase.RequestResetOutput, error) {
	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			srv.log(ctx).Info("Reset requested for unknown email", slog.String("email", input.Email))

			return nil, domainerrors.ErrAccountNotFound.WrapMessage("no account for this email")
		}

		return nil, errors.Wrap(err, "failed to find account by email")
	}

	token, err := srv.issueToken(ctx, account)
	if err != nil {
		return nil, err
	}

	resetLink := srv.buildResetLink(token.Token)
	if err := srv.mailer.SendResetLink(ctx, account.Email, resetLink); err != nil {
		// The token stays valid; the account holder can retry the request and
		// receive a fresh link without the first one getting in the way.
		srv.log(ctx).Warn("Failed to send reset link",
			slog.Any("accountID", account.ID),
			slog.Any("error", err),
		)
	}

	srv.log(ctx).Debug("Reset token issued",
		slog.Any("accountID", account.ID),
		slog.Time("expiresAt", token.ExpiresAt),
	)

	return &usecase.RequestResetOutput{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// issueToken generates and stores a fresh token, regenerating on the off chance
// the secret collides with an existing row. Attempts are bounded.
func (srv *recoveryService) issueToken(ctx context.Context, account *entity.Account) (*entity.ResetToken, error) {
	for attempt := 0; attempt < srv.maxAttempts; attempt++ {
		secret, err := srv.tokenGen.Generate()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate reset token")
		}

		token := &entity.ResetToken{
			AccountID: account.ID,
			Token:     secret,
			ExpiresAt: srv.clock.Now().Add(srv.tokenTTL),
		}

		err = srv.tokenRepo.Create(ctx, token)
		if err == nil {
			return token, nil
		}
		if errors.Is(err, repository.ErrDuplicateResetToken) {
			srv.log(ctx).Warn("Reset token collision, regenerating", slog.Int("attempt", attempt+1))

			continue
		}

		return nil, errors.Wrap(err, "failed to store reset token")
	}

	return nil, domainerrors.ErrResetTokenIssueFailed.WrapMessage("token generation attempts exhausted")
}

func (srv *recoveryService) buildResetLink(secret string) string {
	return fmt.Sprintf("%s/auth/reset-password?token=%s", strings.TrimRight(srv.baseURL, "/"), secret)
}

// ValidateToken checks a token without consuming it. Unknown, used, and expired
// states are reported as distinct errors, in that order of precedence.
func (srv *recoveryService) ValidateToken(ctx context.Context, token string) (*usecase.ValidateTokenOutput, error) {
	record, err := srv.lookupRedeemable(ctx, srv.tokenRepo, token)
	if err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// The owning account is gone; the token is worthless.
			return nil, domainerrors.ErrResetTokenInvalid.WrapMessage("token owner no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find token owner")
	}

	return &usecase.ValidateTokenOutput{
		TokenID:   record.ID,
		AccountID: account.ID,
		Email:     account.Email,
	}, nil
}

// lookupRedeemable fetches a token by secret and rejects it when it is unknown,
// already used, or expired. Expiry is judged against the live clock, never
// against whether cleanup has run.
func (srv *recoveryService) lookupRedeemable(ctx context.Context, tokenRepo repository.ResetTokenRepository, token string) (*entity.ResetToken, error) {
	record, err := tokenRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return nil, domainerrors.ErrResetTokenInvalid.WrapMessage("token not found")
		}

		return nil, errors.Wrap(err, "failed to find reset token")
	}

	if record.Consumed {
		return nil, domainerrors.ErrResetTokenUsed.WrapMessage("token already consumed")
	}

	if record.Expired(srv.clock.Now()) {
		return nil, domainerrors.ErrResetTokenExpired.WrapMessage("token past its expiry")
	}

	return record, nil
}

// ResetPassword redeems a token. Checks run in a fixed order: confirmation
// match, password policy, token validity. The password update and the token
// consumption then commit atomically; losing the consume race rolls back the
// password write and surfaces the already-used error.
func (srv *recoveryService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	if input.NewPassword != input.ConfirmPassword {
		return domainerrors.ErrPasswordMismatch.WrapMessage("passwords do not match")
	}

	if violations := srv.policy.Validate(input.NewPassword); len(violations) > 0 {
		return domainerrors.ErrPasswordStrength.WithDetails(strings.Join(violations, "; "))
	}

	passwordHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash new password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()
		tokenRepo := repoFactory.NewResetTokenRepository()

		record, err := srv.lookupRedeemable(ctx, tokenRepo, input.Token)
		if err != nil {
			return err
		}

		if err := accountRepo.UpdatePasswordHash(ctx, record.AccountID, passwordHash); err != nil {
			return errors.Wrap(err, "failed to update password hash")
		}

		// Conditional consume settles concurrent redeems: the loser's error
		// aborts the transaction and undoes its password write.
		if err := tokenRepo.Consume(ctx, record.ID); err != nil {
			if errors.Is(err, repository.ErrResetTokenConsumed) {
				return domainerrors.ErrResetTokenUsed.WrapMessage("token consumed by a concurrent reset")
			}
			if errors.Is(err, repository.ErrResetTokenNotFound) {
				return domainerrors.ErrResetTokenInvalid.WrapMessage("token disappeared during reset")
			}

			return errors.Wrap(err, "failed to consume reset token")
		}

		srv.log(ctx).Info("Password reset completed", slog.Any("accountID", record.AccountID))

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Password reset failed", slog.Any("error", err))

		return err
	}

	return nil
}

// Cleanup purges expired and consumed tokens. Running it twice in a row is
// harmless; the second pass simply deletes nothing.
func (srv *recoveryService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := srv.tokenRepo.PurgeBefore(ctx, srv.clock.Now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge reset tokens")
	}

	if deleted > 0 {
		srv.log(ctx).Info("Purged dead reset tokens", slog.Int64("deleted", deleted))
	}

	return deleted, nil
}
