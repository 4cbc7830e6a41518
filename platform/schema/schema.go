package schema

import (
	"time"

	"github.com/google/uuid"
)

// Brand identifies one of the product lines the platform manages. The set is
// fixed; catalog and video records are always tagged with exactly one brand.
type Brand string

const (
	BrandUnger    Brand = "UNGER"
	BrandElCastor Brand = "EL_CASTOR"
)

func ValidBrand(brand Brand) bool {
	switch brand {
	case BrandUnger, BrandElCastor:
		return true
	default:
		return false
	}
}

func Brands() []Brand {
	return []Brand{BrandUnger, BrandElCastor}
}

// CatalogMediaType is the only payload type accepted for catalog uploads.
const CatalogMediaType = "application/pdf"

// Catalog is the single digital catalog document for one brand. A new upload
// for a brand fully replaces the previous record, there is no version history.
//
// PayloadRef is either an inline data URL (embedded backend) or a resolvable
// https URL (remote backend).
type Catalog struct {
	Brand      Brand     `gorm:"primaryKey;size:50" json:"brand" bson:"_id"`
	Name       string    `gorm:"size:255;not null" json:"name" bson:"name"`
	MediaType  string    `gorm:"size:100;not null" json:"media_type" bson:"media_type"`
	PayloadRef string    `gorm:"type:text;not null" json:"payload_ref" bson:"payload_ref"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

const (
	SourceLink = "link"
	SourceFile = "file"
)

// Video is one training/support media entry. SourceKind determines how
// PayloadRef is interpreted: for "link" it is the external URL exactly as
// supplied at creation, for "file" it is a reference assigned by the store
// once the payload is durably placed. Videos are immutable after creation.
type Video struct {
	Id         string    `gorm:"primaryKey;size:50" json:"id" bson:"_id"`
	Title      string    `gorm:"size:255;not null" json:"title" bson:"title"`
	Brand      Brand     `gorm:"size:50;not null;index" json:"brand" bson:"brand"`
	SourceKind string    `gorm:"size:20;not null" json:"source_kind" bson:"source_kind"`
	PayloadRef string    `gorm:"type:text;not null" json:"payload_ref" bson:"payload_ref"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Username string `gorm:"unique;size:50;not null" json:"username"`
	Email    string `gorm:"unique;size:254;not null" json:"email"`
	Phone    string `gorm:"size:30" json:"phone"`
	Company  string `gorm:"size:100" json:"company"`

	Password []byte `json:"-"`

	IsAdmin  bool `gorm:"not null;default:false" json:"admin"`
	Approved bool `gorm:"not null;default:false" json:"approved"`

	JoinedAt  time.Time `json:"joined_at"`
	LastLogin time.Time `json:"last_login"`
}
