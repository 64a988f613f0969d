package postgres

import (
	"context"
	"time"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/repository"
	"credvault/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// resetTokenRepository implements the domain.ResetTokenRepository interface using GORM.
type resetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository is the constructor for resetTokenRepository.
func NewResetTokenRepository(db *gorm.DB) repository.ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Create persists a newly issued reset token. A collision on the token column
// surfaces as ErrDuplicateResetToken so the caller can regenerate.
func (repo *resetTokenRepository) Create(ctx context.Context, token *entity.ResetToken) error {
	tokenM := fromResetTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateResetToken
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrResetTokenIssueFailed.WrapMessage("invalid account reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create reset token")
	}

	// Update the entity with generated values
	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindByToken retrieves a reset token record by its secret string.
// Consumed and expired rows are returned as-is; redeemability is the caller's call.
func (repo *resetTokenRepository) FindByToken(ctx context.Context, token string) (*entity.ResetToken, error) {
	var tokenM model.ResetTokenModel

	err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResetTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find reset token")
	}

	return toResetTokenDomain(&tokenM), nil
}

// Consume marks the token consumed with a single conditional update so that
// exactly one of any number of concurrent redeemers observes success.
func (repo *resetTokenRepository) Consume(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ResetTokenModel{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to consume reset token")
	}

	if result.RowsAffected == 0 {
		// Zero rows means either the token never existed or another redeemer won.
		// A follow-up lookup tells the two apart.
		var count int64
		if err := repo.db.WithContext(ctx).
			Model(&model.ResetTokenModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to check reset token existence")
		}
		if count == 0 {
			return repository.ErrResetTokenNotFound
		}

		return repository.ErrResetTokenConsumed
	}

	return nil
}

// PurgeBefore removes every token that expired before the given instant or has
// already been consumed, returning the number of rows deleted.
func (repo *resetTokenRepository) PurgeBefore(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ? OR consumed = ?", now, true).
		Delete(&model.ResetTokenModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to purge reset tokens")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toResetTokenDomain converts a GORM ResetTokenModel to a domain ResetToken entity.
func toResetTokenDomain(data *model.ResetTokenModel) *entity.ResetToken {
	if data == nil {
		return nil
	}

	return &entity.ResetToken{
		ID:        data.ID,
		AccountID: data.AccountID,
		Token:     data.Token,
		ExpiresAt: data.ExpiresAt,
		Consumed:  data.Consumed,
		CreatedAt: data.CreatedAt,
	}
}

// fromResetTokenDomain converts a domain ResetToken entity to a GORM ResetTokenModel.
func fromResetTokenDomain(data *entity.ResetToken) *model.ResetTokenModel {
	if data == nil {
		return nil
	}

	return &model.ResetTokenModel{
		ID:        data.ID,
		AccountID: data.AccountID,
		Token:     data.Token,
		ExpiresAt: data.ExpiresAt,
		Consumed:  data.Consumed,
	}
}
