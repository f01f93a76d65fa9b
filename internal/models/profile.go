package models

// Profile categories recognised by the portal.
const (
	CategoryIndividual = "individual"
	CategoryStudent    = "student"
	CategoryBusiness   = "business"
)

// Profile holds the consular profile attached 1:1 to a User. A profile is only
// ever created together with its owning account, inside the same transaction.
type Profile struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"not null" json:"email"`
	Phone     string `gorm:"not null" json:"phone"`

	ResidenceCountryCode string `gorm:"size:2;not null" json:"residence_country_code"`
	Category             string `gorm:"size:32;default:individual" json:"category"`
}
