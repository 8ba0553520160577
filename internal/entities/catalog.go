package entities

import (
	"strconv"
	"strings"
	"time"
)

type RoleName string

const (
	RoleAdmin     RoleName = "Admin"
	RoleModerator RoleName = "Moderator"
	RoleUser      RoleName = "User"
)

type ReviewStatusName string

const (
	ReviewPending  ReviewStatusName = "Pending"
	ReviewApproved ReviewStatusName = "Approved"
	ReviewRejected ReviewStatusName = "Rejected"
)

type Role struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        RoleName `gorm:"uniqueIndex;size:64" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:64" json:"username"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	LastName     string         `gorm:"size:100" json:"last_name"`
	FirstName    string         `gorm:"size:100" json:"first_name"`
	MiddleName   string         `gorm:"size:100" json:"middle_name,omitempty"`
	RoleID       uint           `gorm:"index" json:"role_id"`
	Role         Role           `gorm:"foreignKey:RoleID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"role,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FullName joins the name parts, skipping the ones that are empty.
func (u User) FullName() string {
	parts := []string{u.LastName, u.FirstName, u.MiddleName}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.TrimSpace(strings.Join(nonEmpty, " "))
}

// HasRole reports whether the user's role is one of the given names.
func (u User) HasRole(names ...RoleName) bool {
	for _, n := range names {
		if u.Role.Name == n {
			return true
		}
	}
	return false
}

// Cover is a deduplicated image artifact identified by the hash of its bytes.
// One cover may back several books; its file lives as {id}{ext} in the covers
// directory.
type Cover struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Filename    string `gorm:"size:255" json:"filename"`
	MimeType    string `gorm:"size:100" json:"mime_type"`
	ContentHash string `gorm:"uniqueIndex;size:32" json:"content_hash"`
}

type Book struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Title            string      `gorm:"size:255" json:"title"`
	ShortDescription string      `gorm:"type:text" json:"short_description"`
	Year             int         `gorm:"check:chk_books_year,year BETWEEN 1000 AND 2100" json:"year"`
	Publisher        string      `gorm:"size:255" json:"publisher"`
	Author           string      `gorm:"size:255" json:"author"`
	Pages            int         `gorm:"check:chk_books_pages,pages > 0" json:"pages"`
	CoverID          uint        `gorm:"index" json:"cover_id"`
	Cover            Cover       `gorm:"foreignKey:CoverID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"cover,omitempty"`
	Genres           []BookGenre `gorm:"foreignKey:BookID" json:"genres,omitempty"`
	Reviews          []Review    `gorm:"foreignKey:BookID" json:"reviews,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100" json:"name"`
}

// BookGenre links a book to a genre. The pair is the primary key, so a genre
// can be attached to a book at most once.
type BookGenre struct {
	BookID  uint  `gorm:"primaryKey" json:"book_id"`
	GenreID uint  `gorm:"primaryKey" json:"genre_id"`
	Book    Book  `gorm:"foreignKey:BookID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Genre   Genre `gorm:"foreignKey:GenreID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"genre,omitempty"`
}

// ReviewStatus is a fixed lookup set seeded at startup: Pending, Approved,
// Rejected.
type ReviewStatus struct {
	ID   uint             `gorm:"primaryKey" json:"id"`
	Name ReviewStatusName `gorm:"uniqueIndex;size:50" json:"name"`
}

type Review struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	BookID    uint         `gorm:"uniqueIndex:uq_reviews_book_user" json:"book_id"`
	UserID    uint         `gorm:"uniqueIndex:uq_reviews_book_user" json:"user_id"`
	Rating    int          `gorm:"check:chk_reviews_rating,rating BETWEEN 0 AND 5" json:"rating"`
	Text      string       `gorm:"type:text" json:"text"`
	CreatedAt time.Time    `json:"created_at"`
	StatusID  uint         `gorm:"index" json:"status_id"`
	Book      Book         `gorm:"foreignKey:BookID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User      User         `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Status    ReviewStatus `gorm:"foreignKey:StatusID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"status,omitempty"`
}

// ratingLabels maps ratings to their display wording. Presentation only.
var ratingLabels = map[int]string{
	5: "excellent",
	4: "good",
	3: "satisfactory",
	2: "unsatisfactory",
	1: "poor",
	0: "terrible",
}

// RatingLabel returns the display label for the review's rating.
func (r Review) RatingLabel() string {
	if label, ok := ratingLabels[r.Rating]; ok {
		return label
	}
	return strconv.Itoa(r.Rating)
}

func (Role) TableName() string         { return "roles" }
func (User) TableName() string         { return "users" }
func (Cover) TableName() string        { return "covers" }
func (Book) TableName() string         { return "books" }
func (Genre) TableName() string        { return "genres" }
func (BookGenre) TableName() string    { return "book_genres" }
func (ReviewStatus) TableName() string { return "review_statuses" }
func (Review) TableName() string       { return "reviews" }
