package model

import "time"

// NewsletterSubscription is append-only; the email is the natural key.
type NewsletterSubscription struct {
	Email        string    `gorm:"primarykey;type:varchar(255)" json:"email"`
	Source       string    `gorm:"type:varchar(50);default:website" json:"source"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

func (NewsletterSubscription) TableName() string {
	return "newsletter_subscriptions"
}
