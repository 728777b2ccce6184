package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	TypePhoto    = "photo"
	TypeDocument = "document"

	DefaultCategory = "Uncategorized"
)

type User struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Username  string    `json:"username" gorm:"size:255;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"not null;default:''"`
	Role      string    `json:"role" gorm:"size:32;not null;default:user;index"`
	CreatedAt time.Time `json:"createdAt"`
}

type File struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"not null"`
	URL         string    `json:"url" gorm:"not null"`
	Type        string    `json:"type" gorm:"size:32;not null"`
	Size        int64     `json:"size" gorm:"not null"`
	Description *string   `json:"description"`
	Tags        Tags      `json:"tags"`
	Category    string    `json:"category" gorm:"not null;default:Uncategorized"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Tags is stored as text[] on Postgres and as its array literal elsewhere.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src any) error {
	var a pq.StringArray
	if err := a.Scan(src); err != nil {
		return err
	}
	*t = Tags(a)
	return nil
}

func (Tags) GormDataType() string {
	return "text"
}

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// FileType classifies an upload by its MIME type.
func FileType(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return TypePhoto
	}
	return TypeDocument
}
