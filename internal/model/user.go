package model

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"hashed_password" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Requester : кто выполняет операцию над сниппетом
type Requester struct {
	UserID  int64
	IsAdmin bool
}

// CanAccess : владелец или администратор
func (r Requester) CanAccess(ownerID int64) bool {
	return r.IsAdmin || r.UserID == ownerID
}
