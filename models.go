// models.go this is our database models
package main

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// User is an account that can sign in to the admin surface.
type User struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Username    string `gorm:"size:150;uniqueIndex;not null"`
	Email       string `gorm:"size:255;index"`
	Name        string `gorm:"size:255"`
	Password    string `gorm:"not null"`
	IsStaff     bool   `gorm:"not null;default:false"`
	IsSuperuser bool   `gorm:"not null;default:false"`
}

func (u *User) isAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

type Profile struct {
	ID             uint `gorm:"primarykey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         uint   `gorm:"uniqueIndex;not null"`
	User           User   `gorm:"constraint:OnDelete:CASCADE;"`
	Name           string `gorm:"size:100;not null"`
	Bio            string `gorm:"type:text"`
	ProfilePicture string
	Location       string `gorm:"size:100"`
	Skills         datatypes.JSONSlice[string]
	GithubURL      string
	LinkedinURL    string
	TwitterURL     string
	WebsiteURL     string
}

type Project struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Title        string `gorm:"size:200;not null"`
	Slug         string `gorm:"size:255;uniqueIndex;not null"`
	Description  string `gorm:"type:text"`
	TechStack    datatypes.JSONSlice[string]
	StartDate    datatypes.Date `gorm:"not null"`
	EndDate      *datatypes.Date
	GithubURL    string
	LiveDemoURL  string
	PlaystoreURL string
	Tags         datatypes.JSONSlice[string]
	Priority     string         `gorm:"size:10;not null;default:medium"`
	IsFeatured   bool           `gorm:"not null;default:false;index"`
	Images       []ProjectImage `gorm:"constraint:OnDelete:CASCADE;"`
}

type ProjectImage struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	ProjectID uint   `gorm:"not null;index"`
	Image     string `gorm:"not null"`
	Caption   string `gorm:"size:200"`
	Order     int    `gorm:"column:sort_order;not null;default:0"`
}

type Experience struct {
	ID               uint `gorm:"primarykey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompanyName      string         `gorm:"size:200;not null"`
	Position         string         `gorm:"size:200;not null"`
	Responsibilities string         `gorm:"type:text"`
	StartDate        datatypes.Date `gorm:"not null"`
	EndDate          *datatypes.Date
	IsCurrent        bool `gorm:"not null;default:false"`
	CompanyURL       string
	Location         string `gorm:"size:100"`
}

type Education struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Institution  string         `gorm:"size:200;not null"`
	Degree       string         `gorm:"size:20;not null"`
	FieldOfStudy string         `gorm:"size:200;not null"`
	StartDate    datatypes.Date `gorm:"not null"`
	EndDate      *datatypes.Date
	Grade        string `gorm:"size:50"`
	Details      string `gorm:"type:text"`
}

type Testimonial struct {
	ID               uint `gorm:"primarykey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ReviewerName     string `gorm:"size:100;not null"`
	ReviewerPosition string `gorm:"size:200;not null"`
	ReviewerCompany  string `gorm:"size:200"`
	Quote            string `gorm:"type:text;not null"`
	ReviewerImage    string
	ReviewerLinkedin string
	IsFeatured       bool `gorm:"not null;default:false;index"`
	Order            int  `gorm:"column:sort_order;not null;default:0"`
}

type BlogPost struct {
	ID            uint `gorm:"primarykey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Title         string `gorm:"size:200;not null"`
	Slug          string `gorm:"size:255;uniqueIndex;not null"`
	Content       string `gorm:"type:text"`
	Excerpt       string `gorm:"type:text"`
	Tags          datatypes.JSONSlice[string]
	Status        string `gorm:"size:20;not null;default:draft;index"`
	FeaturedImage string
	IsFeatured    bool `gorm:"not null;default:false;index"`
	PublishedAt   *time.Time
}

// Message is a contact-form submission.
type Message struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:254;not null"`
	Subject   string `gorm:"size:200;not null"`
	Body      string `gorm:"column:message;type:text;not null"`
	IsRead    bool   `gorm:"not null;default:false"`
}

func allModels() []any {
	return []any{
		&User{}, &Profile{}, &Project{}, &ProjectImage{}, &Experience{},
		&Education{}, &Testimonial{}, &BlogPost{}, &Message{},
	}
}
