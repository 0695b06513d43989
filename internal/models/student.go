package models

type Student struct {
	BaseModel
	UserID   string `gorm:"uniqueIndex;not null"`
	FullName string `gorm:"not null"`
	IsHired  bool   `gorm:"default:false"`

	// CurrentSubscriptionID references the student's current paid
	// subscription. Null means free tier; SubscriptionTier must be
	// free whenever this is null.
	CurrentSubscriptionID *string
	SubscriptionTier      SubscriptionTier `gorm:"default:'free'"`

	// Relations
	User User `gorm:"foreignKey:UserID"`
}
