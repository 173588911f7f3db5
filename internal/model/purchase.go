package model

import "time"

// PurchaseID is a monotonic identifier assigned by storage
type PurchaseID int64

// Purchase is an immutable record of a completed external purchase
type Purchase struct {
	ID           PurchaseID
	IdentityID   IdentityID
	ProductName  string
	PurchaseDate time.Time
}
