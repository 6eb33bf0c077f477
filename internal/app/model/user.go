package model

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
)

// User is an admin console account. In practice there is a single admin row.
type User struct {
	ID       uint     `gorm:"primarykey" json:"id"`
	Username string   `gorm:"uniqueIndex;not null" json:"username"`
	Password string   `gorm:"not null" json:"-"` // bcrypt hash
	Role     UserRole `gorm:"type:varchar(20);default:'admin'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
