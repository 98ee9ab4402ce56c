package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Operator is a control-plane account: someone allowed to create
// queues, run them, and manage workflows and streams over the REST
// API. bqm has no notion of end users, only operators.
type Operator struct {
	OperatorID uint       `gorm:"primaryKey;autoIncrement" json:"operator_id"`
	Username   string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password   string     `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt  time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// RefreshToken backs JWT access-token renewal without re-authenticating.
type RefreshToken struct {
	TokenID    uint      `gorm:"primaryKey;autoIncrement" json:"token_id"`
	OperatorID uint      `gorm:"not null;index" json:"operator_id"`
	Token      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	IsRevoked  bool      `gorm:"default:false" json:"is_revoked"`
}

func (o *Operator) BeforeCreate(tx *gorm.DB) error {
	if o.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		o.Password = string(hashed)
	}
	return nil
}

func (o *Operator) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.Password), []byte(password)) == nil
}

// OperatorResponse is what the API hands back, excluding the hash.
type OperatorResponse struct {
	OperatorID uint       `json:"operator_id"`
	Username   string     `json:"username"`
	CreatedAt  time.Time  `json:"created_at"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func (o *Operator) ToResponse() OperatorResponse {
	return OperatorResponse{
		OperatorID: o.OperatorID,
		Username:   o.Username,
		CreatedAt:  o.CreatedAt,
		IsActive:   o.IsActive,
		LastLogin:  o.LastLogin,
	}
}
