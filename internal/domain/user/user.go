package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TelegramID   string    `gorm:"uniqueIndex;not null;column:telegram_id" json:"telegram_id"`
	Username     string    `gorm:"column:username" json:"username"`
	FirstName    string    `gorm:"column:first_name" json:"first_name"`
	LastName     string    `gorm:"column:last_name" json:"last_name"`
	Email        string    `gorm:"column:email" json:"email"`
	Password     string    `gorm:"column:password" json:"-"`
	IsActive     bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	IsAdmin      bool      `gorm:"not null;default:false;column:is_admin" json:"is_admin"`
	LastActivity time.Time `gorm:"not null;default:now();column:last_activity" json:"last_activity"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
