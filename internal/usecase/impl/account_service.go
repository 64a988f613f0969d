// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "credvault/internal/delivery/context"
	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/repository"
	"credvault/internal/domain/service"
	"credvault/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	policy      service.PasswordPolicy
	logger      *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Policy      service.PasswordPolicy
	Logger      *slog.Logger
}

// NewAccountService is the constructor for accountService. It receives all dependencies as interfaces.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		policy:      params.Policy,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new account. Uniqueness of the email is settled by the
// store's constraint; there is no lookup beforehand, so concurrent registrations
// of the same email cannot both succeed.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AccountOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if violations := srv.policy.Validate(input.Password); len(violations) > 0 {
		srv.log(ctx).Warn("Password validation failed during registration",
			slog.String("email", input.Email),
			slog.Int("violations", len(violations)),
		)

		return nil, domainerrors.ErrPasswordStrength.WithDetails(strings.Join(violations, "; "))
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash password")
	}

	account := &entity.Account{
		Email:        input.Email,
		PasswordHash: passwordHash,
	}

	if err := srv.accountRepo.Create(ctx, account); err != nil {
		srv.log(ctx).Warn("Failed to create account", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("accountID", account.ID))

	return &usecase.AccountOutput{Account: account}, nil
}

// Login verifies a credential pair. Unknown emails and wrong passwords collapse
// into the same invalid-credentials error so callers cannot probe for accounts.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AccountOutput, error) {
	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrInvalidCredentials.WrapMessage("account not found")
		}

		return nil, errors.Wrap(err, "failed to find account by email")
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		srv.log(ctx).Warn("Login failed, password mismatch", slog.Any("accountID", account.ID))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
	}

	srv.log(ctx).Debug("Login succeeded", slog.Any("accountID", account.ID))

	return &usecase.AccountOutput{Account: account}, nil
}
