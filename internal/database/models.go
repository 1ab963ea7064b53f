package database

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumekit/internal/resume"
)

// User is an account that owns resumes.
type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:64"`
	PasswordHash string   `gorm:"size:255"`
	Resumes      []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume is a persisted resume document. Content holds the structured
// payload (personal info, summary, experience, education, skills) as
// JSONB; Template selects the rendering strategy by name.
type Resume struct {
	gorm.Model
	Title      string         `gorm:"size:255"`
	Template   string         `gorm:"size:32;default:professional"`
	Content    datatypes.JSON `gorm:"type:jsonb"`
	UserID     uint           `gorm:"index"`
	User       User           `gorm:"constraint:OnDelete:CASCADE"`
	ShareToken *string        `gorm:"uniqueIndex;size:64"`
	ExportKey  string         `gorm:"size:512"`
	Status     string         `gorm:"size:32"`
}

// Document decodes the row into the typed resume document all render
// paths consume.
func (r Resume) Document() (resume.Document, error) {
	var content resume.Content
	if len(r.Content) > 0 {
		if err := json.Unmarshal(r.Content, &content); err != nil {
			return resume.Document{}, err
		}
	}
	return resume.Document{
		ID:        r.ID,
		Title:     r.Title,
		Template:  resume.Template(r.Template).Normalize(),
		Content:   content,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
