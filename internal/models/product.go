package models

import "time"

type Product struct {
	ID            string    `json:"id" firestore:"id"`
	Name          string    `json:"name" firestore:"name"`
	Price         float64   `json:"price" firestore:"price"`
	Description   string    `json:"description" firestore:"description"`
	Category      string    `json:"category" firestore:"category"`
	Quantity      int       `json:"quantity" firestore:"quantity"`
	UserID        string    `json:"userId" firestore:"userId"`
	Rating        float64   `json:"rating,omitempty" firestore:"rating,omitempty"`
	Image         string    `json:"image,omitempty" firestore:"image,omitempty"`
	Images        []string  `json:"images,omitempty" firestore:"images,omitempty"`
	ImageFileID   string    `json:"imageFileId,omitempty" firestore:"imageFileId,omitempty"`
	ImageFileIDs  []string  `json:"imageFileIds,omitempty" firestore:"imageFileIds,omitempty"`
	Condition     string    `json:"condition,omitempty" firestore:"condition,omitempty"`
	SellerMessage string    `json:"sellerMessage,omitempty" firestore:"sellerMessage,omitempty"`
	RentAvailable bool      `json:"rentAvailable" firestore:"rentAvailable"`
	SellerName    string    `json:"sellerName,omitempty" firestore:"-"`
	SellerPhoto   string    `json:"sellerPhoto,omitempty" firestore:"-"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// FileIDs returns every stored image file id, primary first, without duplicates.
func (p *Product) FileIDs() []string {
	seen := make(map[string]bool, len(p.ImageFileIDs)+1)
	out := make([]string, 0, len(p.ImageFileIDs)+1)
	for _, id := range append([]string{p.ImageFileID}, p.ImageFileIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ProductPage is one page of the catalog listing.
type ProductPage struct {
	Products   []*Product `json:"products"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// Image is a stored upload.
type Image struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
}
