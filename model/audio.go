package model

import (
	"strings"
	"time"
)

// DateLayout is the format of Audio.Date and of calendar day keys.
const DateLayout = "2006-01-02"

// Audio is one uploaded track.
type Audio struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	PlaylistID string    `json:"playlistId" gorm:"size:36;index;not null"`
	URL        string    `json:"url" gorm:"size:1024;not null"`
	PublicID   string    `json:"publicId" gorm:"size:255;index"` // object key on the media host
	Format     string    `json:"format" gorm:"size:32"`
	Duration   int       `json:"duration"`                        // seconds, advisory
	Date       *string   `json:"date" gorm:"size:10;index"`       // optional YYYY-MM-DD
	VisibleFor RoleList  `json:"visibleFor" gorm:"type:json"`     // empty means everyone
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt" gorm:"index"`
	Order      int       `json:"order" gorm:"column:sort_order;default:0"`
}

// TableName 指定表名
func (Audio) TableName() string {
	return "audios"
}

// HasDate reports whether a custom calendar date is set.
func (a *Audio) HasDate() bool {
	return a.Date != nil && strings.TrimSpace(*a.Date) != ""
}

// AudioList is a batch of tracks as returned by the store, in no particular order.
type AudioList []Audio
