package domain

import (
	"time"

	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
)

const RoleStudent = "student"

// User is a campus account. Accounts created through password login carry a
// PC number; accounts created through an external identity provider carry
// its uid instead.
type User struct {
	ID           string
	PCNumber     *int64
	PasswordHash string
	FirstName    string
	LastName     string
	Mail         *string
	MailVerified bool
	Description  string
	Department   string
	Class        string
	PhotoPath    string
	Role         string
	GithubLink   string
	LinkedinLink string
	BannerLink   string
	FirebaseUID  *string
	Skills       []catalog.Ref
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpdateInput holds profile changes; nil fields are left as they are.
type UpdateInput struct {
	FirstName    *string
	LastName     *string
	Description  *string
	Department   *string
	Class        *string
	GithubLink   *string
	LinkedinLink *string
	BannerLink   *string
	PhotoPath    *string
	SkillIDs     []string
}

// ListFilter narrows the user directory.
type ListFilter struct {
	Department   string
	ClassPrefix  string
	PCNumber     *int64
	NameContains string
	Offset       int
	Limit        int
}
