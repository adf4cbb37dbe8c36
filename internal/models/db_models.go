package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `gorm:"type:text;not null;default:admin" json:"role"`
	Active       bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index" json:"user_id"`
	TokenHash string    `gorm:"not null;index" json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

// Banner is a homepage promotional slide.
type Banner struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Image       string    `gorm:"not null" json:"image"`
	ImageKey    string    `json:"-"`
	Active      bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type News struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Image       string    `gorm:"not null" json:"image"`
	ImageKey    string    `json:"-"`
	Published   bool      `gorm:"not null;index" json:"is_published"`
	PublishDate time.Time `json:"publish_date"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (News) TableName() string { return "news" }

// Direction is a training program offered by the center.
type Direction struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string    `gorm:"not null" json:"title"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Image          string    `gorm:"not null" json:"image"`
	ImageKey       string    `json:"-"`
	Duration       string    `gorm:"not null" json:"duration"`
	LessonDuration string    `gorm:"not null" json:"lesson_duration"`
	LessonDays     string    `gorm:"not null" json:"lesson_days"`
	AgeRange       string    `gorm:"not null" json:"age_range"`
	Requirements   string    `gorm:"type:text;not null" json:"requirements"`
	Active         bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Choose is a "why choose us" block.
type Choose struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	TitleDescription string    `gorm:"not null" json:"title_description"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	Active           bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Choose) TableName() string { return "choose_items" }

// Question is a FAQ entry; lists are sorted by Order ascending.
type Question struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Active    bool      `gorm:"not null;index" json:"is_active"`
	Order     int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Image struct {
	ID           string            `gorm:"type:uuid;primaryKey" json:"id"`
	Filename     string            `gorm:"uniqueIndex;not null" json:"filename"`
	OriginalName string            `gorm:"not null" json:"original_name"`
	Path         string            `gorm:"not null" json:"path"`
	Size         int64             `gorm:"not null" json:"size"`
	MimeType     string            `gorm:"column:mimetype;not null" json:"mimetype"`
	Category     ImageCategory     `gorm:"type:text;not null;default:other;index" json:"category"`
	Meta         datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
