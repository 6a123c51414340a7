package dtos

import "time"

type SetSubscriptionRequest struct {
	Status    string     `json:"status" validate:"required,oneof=free premium expired"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
