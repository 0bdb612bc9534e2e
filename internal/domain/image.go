package domain

import "time"

// Image is an uploaded product picture
type Image struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	URL       string    `gorm:"type:text" json:"url"`
	Name      string    `gorm:"size:255" json:"-"`
	Mime      string    `gorm:"size:128" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// TableName Specify table name
func (Image) TableName() string {
	return "product_images"
}

// Upload is a file received from the admin upload form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
