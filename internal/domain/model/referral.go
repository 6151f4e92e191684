package model

import "time"

// Referral is a submitted lead. It is immutable once stored; Email is unique
// across all referrals.
type Referral struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	ReferrerID   string
	ReferrerName string
	Message      string
	CreatedAt    time.Time
}
