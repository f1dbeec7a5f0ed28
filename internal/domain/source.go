package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Source is a provenance record. (type, identifier) is the natural key.
type Source struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type       string         `gorm:"column:type;not null;uniqueIndex:idx_source_natural_key,priority:1" json:"type"`
	Identifier string         `gorm:"column:identifier;not null;uniqueIndex:idx_source_natural_key,priority:2" json:"identifier"`
	GUID       uuid.UUID      `gorm:"column:guid;type:uuid;not null;index" json:"guid"`
	Properties datatypes.JSON `gorm:"column:properties" json:"properties,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

func (Source) TableName() string { return "source" }

// SourceProperties is the typed shape of Source.Properties.
type SourceProperties struct {
	Contents []string `json:"contents,omitempty"`
}
