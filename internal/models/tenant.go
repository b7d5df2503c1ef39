package models

import (
	"time"
)

// Tenant is one business customer, addressed by its WhatsApp bot number.
// Rows live in the master directory (clientes table).
type Tenant struct {
	ID             int64     `json:"id" gorm:"primaryKey" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	WhatsAppNumber string    `json:"whatsapp_number" gorm:"column:whatsapp_number;index" yaml:"whatsapp_number"`
	Active         bool      `json:"active" gorm:"column:ativo;default:true" yaml:"active"`
	DBHost         string    `json:"db_host" gorm:"column:db_host" yaml:"db_host"`
	DBPort         *int      `json:"db_port" gorm:"column:db_port" yaml:"db_port"`
	DBPath         string    `json:"db_path" gorm:"column:db_path" yaml:"db_path"`
	DBUser         string    `json:"db_user" gorm:"column:db_user" yaml:"db_user"`
	DBPassword     string    `json:"-" gorm:"column:db_password" yaml:"db_password"`
	DBVersion      string    `json:"db_version" gorm:"column:db_version" yaml:"db_version"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"-"`
}

// TableName keeps the legacy directory table name
func (Tenant) TableName() string {
	return "clientes"
}
