// Package entity defines the domain entities for the users feature.
package entity

// User represents a registered user.
// Only the identifier and email are ever persisted; any other field a client sends is discarded.
type User struct {
	// ID is the server-generated identifier in canonical UUID form.
	// It is assigned once at creation and never changes.
	ID string `gorm:"primaryKey;size:36" json:"id" dynamodbav:"id"`

	// Email is the trimmed address supplied at creation.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email" dynamodbav:"email"`
}
