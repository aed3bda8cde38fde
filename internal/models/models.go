package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser    Role = "USER"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// NewID returns a 24 character lowercase hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

type Model struct {
	ID        string    `gorm:"primaryKey;size:24" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

type User struct {
	Model
	Name         string `gorm:"size:40;not null"             json:"name"`
	Username     string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:50;uniqueIndex;not null" json:"email"`
	Phone        string `gorm:"size:10;uniqueIndex;not null" json:"phone"`
	PasswordHash string `gorm:"not null"                     json:"-"`
	Role         Role   `gorm:"size:16;not null"             json:"role"`
	IsBanned     bool   `gorm:"not null;default:false"       json:"isBanned"`
}

type BannedUser struct {
	Model
	UserID   string `gorm:"size:24;uniqueIndex;not null" json:"userId"`
	Reason   string `gorm:"not null"                     json:"reason"`
	BannedBy string `gorm:"size:24;not null"             json:"bannedBy"`
}

type CourseCategory struct {
	Model
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Href string `gorm:"size:50;uniqueIndex;not null" json:"href"`
}

type Course struct {
	Model
	Title       string  `gorm:"size:50;not null"              json:"title"`
	CategoryID  string  `gorm:"size:24;index;not null"        json:"categoryId"`
	TeacherID   string  `gorm:"size:24;index;not null"        json:"teacherId"`
	Description string  `gorm:"not null"                      json:"description"`
	Cover       string  `gorm:"not null"                      json:"cover"`
	Slug        string  `gorm:"uniqueIndex;not null"          json:"slug"`
	Price       float64 `gorm:"not null;default:0"            json:"price"`
	Discount    float64 `gorm:"not null;default:0"            json:"discountPercentage"`
}

type Session struct {
	Model
	CourseID    string `gorm:"size:24;index;not null" json:"courseId"`
	Number      int    `gorm:"not null"               json:"sessionNumber"`
	Title       string `gorm:"size:50;not null"       json:"title"`
	Duration    int    `gorm:"not null"               json:"duration"`
	Description string `gorm:"not null"               json:"description"`
	Free        bool   `gorm:"not null;default:false" json:"free"`
	Image       string `gorm:"not null"               json:"image"`
	Video       string `json:"video"`
	Slug        string `gorm:"uniqueIndex;not null"   json:"slug"`
}

type Comment struct {
	Model
	UserID    string  `gorm:"size:24;index;not null" json:"userId"`
	CourseID  string  `gorm:"size:24;index;not null" json:"courseId"`
	SessionID string  `gorm:"size:24;index"          json:"sessionId"`
	Text      string  `gorm:"not null"               json:"comment"`
	Approved  bool    `gorm:"not null;default:false" json:"isApproved"`
	IsReply   bool    `gorm:"not null;default:false" json:"isItReply"`
	ReplyTo   *string `gorm:"size:24;index"          json:"replyTo"`
}

type CourseRating struct {
	Model
	UserID   string `gorm:"size:24;not null;uniqueIndex:idx_rating_user_course" json:"userId"`
	CourseID string `gorm:"size:24;not null;uniqueIndex:idx_rating_user_course" json:"courseId"`
	Rating   int    `gorm:"not null"                                            json:"rating"`
}

type UserCourse struct {
	Model
	UserID   string  `gorm:"size:24;not null;uniqueIndex:idx_purchase_user_course" json:"userId"`
	CourseID string  `gorm:"size:24;not null;uniqueIndex:idx_purchase_user_course" json:"courseId"`
	Price    float64 `gorm:"not null"                                              json:"price"`
	Discount float64 `gorm:"not null;default:0"                                    json:"discountPercentage"`
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&BannedUser{},
		&CourseCategory{},
		&Course{},
		&Session{},
		&Comment{},
		&CourseRating{},
		&UserCourse{},
	}
}
