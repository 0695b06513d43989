package models

type Company struct {
	BaseModel
	UserID      string        `gorm:"uniqueIndex;not null"`
	Name        string        `gorm:"not null"`
	Description string
	Website     *string
	Status      CompanyStatus `gorm:"default:'pending'"`

	// Relations
	User User `gorm:"foreignKey:UserID"`
}
