package models

import "time"

type UniversityLocation string

const (
	LocationUrban UniversityLocation = "urban"
	LocationRural UniversityLocation = "rural"
)

type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type University struct {
	ID              uint               `json:"id" gorm:"primaryKey"`
	TenantID        uint               `json:"tenant_id" gorm:"not null;index"`
	Name            string             `json:"name" gorm:"not null;size:255"`
	Code            *string            `json:"code" gorm:"size:50"`
	State           *string            `json:"state" gorm:"size:100"`
	District        *string            `json:"district" gorm:"size:100"`
	Location        UniversityLocation `json:"location" gorm:"size:10;default:urban"`
	Website         *string            `json:"website" gorm:"size:255"`
	EstablishedYear *int               `json:"established_year"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`

	Colleges []College `json:"colleges,omitempty" gorm:"foreignKey:UniversityID"`
}

type College struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"not null;index"`
	UniversityID *uint     `json:"university_id" gorm:"index"`
	Name         string    `json:"name" gorm:"not null;size:255"`
	Code         *string   `json:"code" gorm:"size:50"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

func (University) TableName() string {
	return "universities"
}

func (College) TableName() string {
	return "colleges"
}

// TenantContext identifies the caller of a request. It is resolved once by the
// auth middleware and handed to every service call; nothing reads tenancy from
// shared state.
type TenantContext struct {
	TenantID  uint
	UserID    string
	Role      UserRole
	StudentID *uint
}

func (tc TenantContext) IsAdmin() bool {
	return tc.Role == RoleAdmin
}

func (tc TenantContext) IsStudent() bool {
	return tc.Role == RoleStudent && tc.StudentID != nil
}

func (tc TenantContext) Valid() bool {
	return tc.TenantID != 0
}
