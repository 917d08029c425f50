package user

import (
	"strings"

	errors "github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/core/common/validation"
)

const minPasswordLength = 8

type NewAccountDTO struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CompanyID *int64 `json:"company_id"`
	Role      string `json:"role"`
}

func (dto *NewAccountDTO) Normalize() {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.FirstName = strings.TrimSpace(dto.FirstName)
	dto.LastName = strings.TrimSpace(dto.LastName)
	dto.Role = strings.ToLower(strings.TrimSpace(dto.Role))
}

func (dto *NewAccountDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Email()
	v.Field("password", dto.Password).Required().MinLength(minPasswordLength)
	v.Field("first_name", dto.FirstName).Required().MaxLength(100)
	v.Field("last_name", dto.LastName).MaxLength(100)
	if dto.Role != "" {
		v.Field("role", dto.Role).OneOf([]string{"admin", "manager", "employee"}, "INVALID_ROLE")
	}
	return v.Validate()
}
