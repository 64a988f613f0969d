package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"credvault/config"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/infra/auth"
	"credvault/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail       = "user@example.com"
	testPassword    = "OriginalPass1!"
	testNewPassword = "BrandNewPass2@"
	testBaseURL     = "https://app.example.com"
)

type recoveryFixture struct {
	store    *memoryStore
	clock    *fakeClock
	mailer   *fakeMailer
	tokenGen *scriptedTokenGen

	accounts usecase.AccountUsecase
	recovery usecase.RecoveryUsecase
}

func newRecoveryFixture(t *testing.T, mutate func(cfg *config.ResetConfig)) *recoveryFixture {
	t.Helper()

	store := newMemoryStore()
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	mailer := &fakeMailer{}
	tokenGen := &scriptedTokenGen{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := auth.NewSaltedHasher()
	policy := auth.NewPasswordPolicy(auth.PolicyConfig{})

	resetCfg := &config.ResetConfig{
		TokenTTL:            time.Hour,
		BaseURL:             testBaseURL,
		MaxGenerateAttempts: 5,
	}
	if mutate != nil {
		mutate(resetCfg)
	}

	fixture := &recoveryFixture{
		store:    store,
		clock:    clock,
		mailer:   mailer,
		tokenGen: tokenGen,
	}

	fixture.accounts = NewAccountService(AccountServiceParams{
		AccountRepo: &fakeAccountRepo{store: store},
		Hasher:      hasher,
		Policy:      policy,
		Logger:      logger,
	})

	fixture.recovery = NewRecoveryService(RecoveryServiceParams{
		TxManager:   &fakeTxManager{store: store},
		AccountRepo: &fakeAccountRepo{store: store},
		TokenRepo:   &fakeResetTokenRepo{store: store},
		Hasher:      hasher,
		Policy:      policy,
		TokenGen:    tokenGen,
		Mailer:      mailer,
		Clock:       clock,
		Config:      &config.Config{Reset: resetCfg},
		Logger:      logger,
	})

	return fixture
}

func (f *recoveryFixture) registerAccount(t *testing.T) {
	t.Helper()

	_, err := f.accounts.Register(context.Background(), &usecase.RegisterInput{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)
}

func TestRequestReset_HappyPath(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)
	require.NotNil(t, output)
	assert.NotEmpty(t, output.Token)
	assert.Equal(t, fixture.clock.Now().Add(time.Hour), output.ExpiresAt)

	// The reset link lands in the mail, pointing at the configured origin.
	require.Equal(t, 1, fixture.mailer.sentCount())
	assert.Equal(t, testEmail, fixture.mailer.sent[0].to)
	assert.Equal(t, testBaseURL+"/auth/reset-password?token="+output.Token, fixture.mailer.sent[0].link)

	// The issued token validates and resolves to the right account.
	info, err := fixture.recovery.ValidateToken(context.Background(), output.Token)
	require.NoError(t, err)
	assert.Equal(t, testEmail, info.Email)
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: "nobody@example.com"})
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrAccountNotFound))

	// No token issued, no mail sent.
	assert.Equal(t, 0, fixture.mailer.sentCount())
	assert.Empty(t, fixture.store.tokens)
}

func TestRequestReset_MailerFailureIsNonFatal(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)
	fixture.mailer.failWith = errors.New("smtp unreachable")

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)
	require.NotNil(t, output)

	// The token survives the delivery failure and can be redeemed.
	err = fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: testNewPassword,
	})
	assert.NoError(t, err)
}

func TestRequestReset_RetriesOnDuplicateToken(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	// First issuance takes the scripted secret.
	fixture.tokenGen.queue = []string{"collision-secret"}
	first, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)
	require.Equal(t, "collision-secret", first.Token)

	// Second issuance collides once, then regenerates.
	fixture.tokenGen.queue = []string{"collision-secret", "fresh-secret"}
	second, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)
	assert.Equal(t, "fresh-secret", second.Token)
}

func TestRequestReset_GenerationAttemptsBounded(t *testing.T) {
	fixture := newRecoveryFixture(t, func(cfg *config.ResetConfig) {
		cfg.MaxGenerateAttempts = 2
	})
	fixture.registerAccount(t)

	fixture.tokenGen.queue = []string{"stuck-secret"}
	_, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	// Every attempt collides; the requester gives up instead of looping forever.
	fixture.tokenGen.queue = []string{"stuck-secret", "stuck-secret"}
	_, err = fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenIssueFailed))
}

func TestRequestReset_NewTokenLeavesPriorOnesAlive(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	first, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)
	second, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	// Both outstanding tokens stay independently redeemable.
	_, err = fixture.recovery.ValidateToken(context.Background(), first.Token)
	assert.NoError(t, err)
	_, err = fixture.recovery.ValidateToken(context.Background(), second.Token)
	assert.NoError(t, err)

	require.NoError(t, fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           first.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: testNewPassword,
	}))

	// Redeeming the first does not touch the second.
	_, err = fixture.recovery.ValidateToken(context.Background(), second.Token)
	assert.NoError(t, err)
}

func TestValidateToken_UnknownUsedExpired(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	_, err := fixture.recovery.ValidateToken(context.Background(), "never-issued")
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	require.NoError(t, fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: testNewPassword,
	}))

	_, err = fixture.recovery.ValidateToken(context.Background(), output.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenUsed))

	// A fresh token judged after its window closes reports expiry.
	fresh, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	fixture.clock.Advance(time.Hour + time.Minute)
	_, err = fixture.recovery.ValidateToken(context.Background(), fresh.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenExpired))
}

func TestValidateToken_ExpiryIsLive(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	// At the exact expiry instant the token is still inside its window.
	fixture.clock.Advance(time.Hour)
	_, err = fixture.recovery.ValidateToken(context.Background(), output.Token)
	assert.NoError(t, err)

	// One tick later it is not, regardless of whether cleanup ever ran.
	fixture.clock.Advance(time.Nanosecond)
	_, err = fixture.recovery.ValidateToken(context.Background(), output.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenExpired))
}

func TestResetPassword_HappyPath(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	require.NoError(t, fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: testNewPassword,
	}))

	// The new credential works, the old one does not.
	_, err = fixture.accounts.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: testNewPassword})
	assert.NoError(t, err)
	_, err = fixture.accounts.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))

	// The token is spent.
	err = fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     "AnotherPass3#",
		ConfirmPassword: "AnotherPass3#",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenUsed))
}

func TestResetPassword_ConfirmationMismatch(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	err = fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: "SomethingElse9$",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordMismatch))

	// A mismatch leaves the token redeemable and the password untouched.
	_, err = fixture.recovery.ValidateToken(context.Background(), output.Token)
	assert.NoError(t, err)
	_, err = fixture.accounts.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.NoError(t, err)
}

func TestResetPassword_WeakPasswordKeepsTokenIssued(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	err = fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     "weak",
		ConfirmPassword: "weak",
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "PASSWORD_STRENGTH", appErr.ErrorCode())
	assert.Contains(t, appErr.Details(), "Password must be at least 8 characters long")
	assert.Contains(t, appErr.Details(), "Password must contain at least one uppercase letter")

	// The failed attempt consumes nothing.
	_, err = fixture.recovery.ValidateToken(context.Background(), output.Token)
	assert.NoError(t, err)
	_, err = fixture.accounts.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.NoError(t, err)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	fixture.clock.Advance(2 * time.Hour)

	err = fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           output.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: testNewPassword,
	})
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenExpired))

	_, err = fixture.accounts.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.NoError(t, err)
}

func TestResetPassword_ConcurrentRedeemsExactlyOnce(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	output, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	const redeemers = 8
	passwords := make([]string, redeemers)
	results := make([]error, redeemers)

	var wg sync.WaitGroup
	for i := range redeemers {
		passwords[i] = testNewPassword + string(rune('a'+i))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
				Token:           output.Token,
				NewPassword:     passwords[i],
				ConfirmPassword: passwords[i],
			})
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range results {
		if err == nil {
			require.Equal(t, -1, winner, "two redeemers succeeded")
			winner = i

			continue
		}
		assert.True(t, errors.Is(err, domainerrors.ErrResetTokenUsed), "loser %d got %v", i, err)
	}
	require.NotEqual(t, -1, winner, "no redeemer succeeded")

	// Exactly the winner's password is in effect.
	_, err = fixture.accounts.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: passwords[winner]})
	assert.NoError(t, err)
}

func TestCleanup_PurgesDeadTokensIdempotently(t *testing.T) {
	fixture := newRecoveryFixture(t, nil)
	fixture.registerAccount(t)

	spent, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)
	require.NoError(t, fixture.recovery.ResetPassword(context.Background(), &usecase.ResetPasswordInput{
		Token:           spent.Token,
		NewPassword:     testNewPassword,
		ConfirmPassword: testNewPassword,
	}))

	stale, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	// Let the second token expire, then issue a live one.
	fixture.clock.Advance(2 * time.Hour)
	live, err := fixture.recovery.RequestReset(context.Background(), &usecase.RequestResetInput{Email: testEmail})
	require.NoError(t, err)

	deleted, err := fixture.recovery.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Second sweep finds nothing; the live token is untouched.
	deleted, err = fixture.recovery.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	_, err = fixture.recovery.ValidateToken(context.Background(), live.Token)
	assert.NoError(t, err)
	_, err = fixture.recovery.ValidateToken(context.Background(), stale.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))
}
