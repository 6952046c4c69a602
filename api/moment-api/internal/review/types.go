package internal_review

import "time"

// Access is a pre-provisioned grant: an email that is allowed researcher
// access, and the data url it may review. Rows are created out of band.
type Access struct {
	Id          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Email       string    `json:"email" gorm:"column:email;type:varchar(255);not null"`
	URL         string    `json:"url" gorm:"column:url;type:text;not null"`
	CreatedDate time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null;default:NOW()"`
}

func (Access) TableName() string { return "access" }

// Token is a live researcher session token, checked on every research
// request via the x-teachermoments-token header.
type Token struct {
	Id          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Email       string    `json:"email" gorm:"column:email;type:varchar(255);not null"`
	Token       string    `json:"-" gorm:"column:token;type:varchar(255);not null;uniqueIndex"`
	ExpiresDate time.Time `json:"expiresDate" gorm:"column:expires_date;type:timestamp;not null"`
	CreatedDate time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null;default:NOW()"`
}

func (Token) TableName() string { return "tokens" }

// Review is a shareable reviewer link: an opaque key bound to an evidence
// filter, emailed to a reviewer.
type Review struct {
	Id             uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ReviewKey      string    `json:"reviewKey" gorm:"column:review_key;type:varchar(64);not null;uniqueIndex"`
	Email          string    `json:"email" gorm:"column:email;type:varchar(255);not null"`
	EvidenceFilter string    `json:"evidenceFilter" gorm:"column:evidence_filter;type:jsonb;not null"`
	CreatedDate    time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null;default:NOW()"`
}

func (Review) TableName() string { return "reviews" }
