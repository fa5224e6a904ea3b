package models

import "gorm.io/gorm"

// User is a directory profile stored in PostgreSQL. The feed core never
// mutates users; it only reads them by opaque id to attach display
// summaries to posts, comments and stories.
type User struct {
	gorm.Model   `json:"-"`
	UserID       string `json:"user_id" gorm:"uniqueIndex"` // opaque id issued by the identity provider
	NameBn       string `json:"name_bn"`
	NameEn       string `json:"name_en"`
	MobileNumber string `json:"mobile_number"`
}

// UserSummary is the lightweight denormalized view attached to feed
// entities at read time. It is resolved fresh on every read and never
// persisted alongside a post or story.
type UserSummary struct {
	UserID       string `json:"user_id"`
	NameBn       string `json:"name_bn,omitempty"`
	NameEn       string `json:"name_en,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

// ToSummary converts a directory profile to its display summary.
func (u *User) ToSummary() UserSummary {
	return UserSummary{
		UserID:       u.UserID,
		NameBn:       u.NameBn,
		NameEn:       u.NameEn,
		MobileNumber: u.MobileNumber,
	}
}

// CreateUserRequest defines the request body for registering a directory
// profile. Credentials and identity issuance live outside this service.
type CreateUserRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	NameBn       string `json:"name_bn" validate:"omitempty,max=100"`
	NameEn       string `json:"name_en" validate:"omitempty,max=100"`
	MobileNumber string `json:"mobile_number" validate:"omitempty,max=20"`
}
