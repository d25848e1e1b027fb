package model

import "time"

type DocumentCategory string

const (
	CategoryInsurance  DocumentCategory = "insurance"
	CategoryWarranty   DocumentCategory = "warranty"
	CategoryManual     DocumentCategory = "manual"
	CategoryReceipt    DocumentCategory = "receipt"
	CategoryInspection DocumentCategory = "inspection"
	CategoryPermit     DocumentCategory = "permit"
	CategoryTax        DocumentCategory = "tax"
	CategoryMortgage   DocumentCategory = "mortgage"
	CategoryUtility    DocumentCategory = "utility"
	CategoryOther      DocumentCategory = "other"
)

// Categories lists every vault category in display order.
var Categories = []DocumentCategory{
	CategoryInsurance, CategoryWarranty, CategoryManual, CategoryReceipt,
	CategoryInspection, CategoryPermit, CategoryTax, CategoryMortgage,
	CategoryUtility, CategoryOther,
}

func (c DocumentCategory) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type Document struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	PropertyID     string           `json:"propertyId,omitempty"`
	Title          string           `json:"title"`
	Category       DocumentCategory `json:"category"`
	FileURI        string           `json:"fileUri,omitempty"`
	ImageURI       string           `json:"imageUri,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	Important      bool             `json:"important"`
	Notes          string           `json:"notes,omitempty"`
	ExpirationDate *time.Time       `json:"expirationDate,omitempty"`
	ReminderDate   *time.Time       `json:"reminderDate,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}
