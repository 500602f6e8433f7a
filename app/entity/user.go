package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID             uint64
	Username       string
	Email          string
	HashedPassword string
	Avatar         sql.NullString
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Contact struct {
	ID        uint64
	Name      string
	Surname   string
	Email     string
	Phone     string
	Birthday  time.Time
	UserID    uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}
