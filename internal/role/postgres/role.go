package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/role"
	"github.com/frahmantamala/expenseflow/internal/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetRole(ctx context.Context, userID int64) (string, error) {
	var ur roleDatamodel.UserRole
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ur).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", role.ErrRoleNotFound
		}
		return "", err
	}
	return ur.Role, nil
}

// GetRoles returns the stored role values keyed by user id; users without a row are absent.
func (r *RoleRepository) GetRoles(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	roles := make(map[int64]string, len(userIDs))
	if len(userIDs) == 0 {
		return roles, nil
	}

	var rows []roleDatamodel.UserRole
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		roles[row.UserID] = row.Role
	}
	return roles, nil
}

// Assign upserts the role of a user. Account provisioning is the only writer; the API exposes no role mutation.
func (r *RoleRepository) Assign(ctx context.Context, userID int64, value role.Role) error {
	row := roleDatamodel.UserRole{UserID: userID, Role: value.String()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
}
