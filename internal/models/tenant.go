package models

import "time"

// Tenant is one CRM workspace and the provider deployment it talks to.
type Tenant struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	BaseURL    string    `gorm:"type:text;not null" json:"base_url"`
	Token      string    `gorm:"type:text" json:"-"`
	InstanceID string    `gorm:"type:varchar(255)" json:"instance_id"`
	Enabled    bool      `gorm:"default:true" json:"enabled"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}
