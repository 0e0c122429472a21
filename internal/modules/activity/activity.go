// Package activity keeps the audit trail of account and moderation events.
package activity

const (
	ActionUserRegistered  = "user_registered"
	ActionUserLogin       = "user_login"
	ActionListingCreated  = "listing_created"
	ActionListingUpdated  = "listing_updated"
	ActionListingDeleted  = "listing_deleted"
	ActionListingApproved = "listing_approved"
	ActionListingRejected = "listing_rejected"
	ActionWarningIssued   = "warning_issued"
	ActionUserSuspended   = "user_suspended"
	ActionUserUnsuspended = "user_unsuspended"
	ActionAdminGranted    = "admin_granted"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// NormalizeLimit maps a requested page size onto [1, MaxLimit], defaulting when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
