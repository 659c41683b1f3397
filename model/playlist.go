package model

import "time"

// Playlist groups audio tracks; Order is the display position.
type Playlist struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Order     int       `json:"order" gorm:"column:sort_order;default:0;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}
