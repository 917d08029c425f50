package profile

import "time"

type Profile struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex;not null"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Email     string    `gorm:"column:email;not null"`
	CompanyID *int64    `gorm:"column:company_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
