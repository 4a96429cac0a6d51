package models

import "gorm.io/gorm"

// User is the dashboard operator. Only the seeded mock admin logs in.
type User struct {
	gorm.Model
	Username string `json:"username" gorm:"unique;not null"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
}
