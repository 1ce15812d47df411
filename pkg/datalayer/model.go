package datalayer

import (
	"time"
)

// Book is a title in the store catalogue.
type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null;index" json:"title"`
	Description string    `json:"description"`
	PublishedOn time.Time `json:"published_on"`
	Publisher   string    `gorm:"size:64" json:"publisher"`
	Price       float64   `gorm:"type:decimal(9,2)" json:"price"`
	ImageURL    string    `gorm:"size:512" json:"image_url,omitempty"`
	Authors     []*Author `gorm:"many2many:book_authors" json:"authors"`
}

// Author of one or more books.
type Author struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// BookSummary is the list view of a book; the heavier columns live in
// BookDetail, loaded only when asked for.
type BookSummary struct {
	BookSummaryID uint        `gorm:"primaryKey" json:"book_summary_id"`
	Title         string      `gorm:"size:256;not null" json:"title"`
	AuthorsString string      `gorm:"size:512" json:"authors_string"`
	Details       *BookDetail `gorm:"foreignKey:BookSummaryID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (BookSummary) TableName() string { return "book_summaries" }

// BookDetail is owned by exactly one BookSummary.
type BookDetail struct {
	BookDetailID  uint    `gorm:"primaryKey" json:"book_detail_id"`
	BookSummaryID uint    `gorm:"uniqueIndex;not null" json:"book_summary_id"`
	Description   string  `json:"description"`
	Price         float64 `gorm:"type:decimal(9,2)" json:"price"`
}

func (BookDetail) TableName() string { return "book_details" }

// Address is stored inline in the owning row, one column per field.
type Address struct {
	Name            string `gorm:"size:100" json:"name"`
	Address1        string `gorm:"size:100" json:"address1"`
	Address2        string `gorm:"size:100" json:"address2,omitempty"`
	Town            string `gorm:"size:60" json:"town"`
	ZipPostCode     string `gorm:"size:20" json:"zip_post_code"`
	CountryCodeIso2 string `gorm:"size:2" json:"country_code_iso2"`
}

// OrderInfo is a placed order with its billing and delivery addresses.
type OrderInfo struct {
	OrderInfoID     uint      `gorm:"primaryKey" json:"order_info_id"`
	OrderNumber     string    `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	BillingAddress  Address   `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	DeliveryAddress Address   `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	Payments        []Payment `gorm:"foreignKey:OrderInfoID" json:"payments,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (OrderInfo) TableName() string { return "orders" }

// Models lists every entity of the bookstore schema in creation order.
func Models() []any {
	return []any{
		&Author{},
		&Book{},
		&BookSummary{},
		&BookDetail{},
		&OrderInfo{},
		&Payment{},
	}
}
