package document

import "time"

// Document is one JSON document of the store, persisted in a relational table.
type Document struct {
	Path      string    `gorm:"column:path;primaryKey"`
	Parent    string    `gorm:"column:parent;index;not null"`
	Body      string    `gorm:"column:body;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for GORM
func (Document) TableName() string {
	return "documents"
}
