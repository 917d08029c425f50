package postgres

import (
	"context"
	"errors"

	companyDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/company"
	profileDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/profile"
	sessionDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/user"
	rolePostgres "github.com/frahmantamala/expenseflow/internal/role/postgres"
	"github.com/frahmantamala/expenseflow/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, account *user.Account, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&userDatamodel.User{}).Where("email = ?", account.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return user.ErrEmailTaken
		}

		u := userDatamodel.User{
			Email:        account.Email,
			PasswordHash: passwordHash,
			IsActive:     account.IsActive,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}

		p := profileDatamodel.Profile{
			UserID:    u.ID,
			FirstName: account.FirstName,
			LastName:  account.LastName,
			Email:     account.Email,
			CompanyID: account.CompanyID,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		if err := rolePostgres.NewRoleRepository(tx).Assign(ctx, u.ID, account.Role); err != nil {
			return err
		}

		account.UserID = u.ID
		account.CreatedAt = u.CreatedAt
		return nil
	})
}

// SetActive flips the account flag. Deactivating also deletes the user's
// sessions, so tokens already issued stop working at once.
func (r *UserRepository) SetActive(ctx context.Context, email string, active bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u userDatamodel.User
		if err := tx.Where("email = ?", email).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrNotFound
			}
			return err
		}

		if err := tx.Model(&u).Update("is_active", active).Error; err != nil {
			return err
		}
		if active {
			return nil
		}
		return tx.Where("user_id = ?", u.ID).Delete(&sessionDatamodel.Session{}).Error
	})
}

func (r *UserRepository) CompanyExists(ctx context.Context, companyID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&companyDatamodel.Company{}).Where("id = ?", companyID).Count(&n).Error
	return n > 0, err
}
