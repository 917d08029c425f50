package postgres

import (
	"context"
	"errors"

	companyDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/company"
	profileDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/profile"
	"github.com/frahmantamala/expenseflow/internal/profile"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*profile.Profile, error) {
	var row profileDatamodel.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return fromDataModel(&row), nil
}

func (r *ProfileRepository) ListByCompany(ctx context.Context, companyID int64) ([]*profile.Profile, error) {
	var rows []*profileDatamodel.Profile
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]*profile.Profile, len(rows))
	for i, row := range rows {
		profiles[i] = fromDataModel(row)
	}
	return profiles, nil
}

func (r *ProfileRepository) GetCompany(ctx context.Context, companyID int64) (*profile.Company, error) {
	var row companyDatamodel.Company
	if err := r.db.WithContext(ctx).Where("id = ?", companyID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return &profile.Company{
		ID:           row.ID,
		Name:         row.Name,
		CurrencyCode: row.CurrencyCode,
	}, nil
}

func fromDataModel(row *profileDatamodel.Profile) *profile.Profile {
	return &profile.Profile{
		ID:        row.ID,
		UserID:    row.UserID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		CompanyID: row.CompanyID,
		CreatedAt: row.CreatedAt,
	}
}
