package entity

import "time"

// Roles coordinated by the platform.
const (
	RoleCustomer = "customer"
	RoleWorkshop = "workshop"
	RoleSupplier = "supplier"
	RoleRunner   = "runner"
)

type User struct {
	ID         string    `json:"id" firestore:"id"`
	Name       string    `json:"name" firestore:"name"`
	Email      string    `json:"email" firestore:"email"`
	Phone      string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role       string    `json:"role" firestore:"role"`
	WorkshopID string    `json:"workshop_id,omitempty" firestore:"workshopId,omitempty"` // staff membership, role=workshop
	SupplierID string    `json:"supplier_id,omitempty" firestore:"supplierId,omitempty"` // staff membership, role=supplier
	Lat        float64   `json:"lat,omitempty" firestore:"lat,omitempty"`
	Lng        float64   `json:"lng,omitempty" firestore:"lng,omitempty"`
	Available  bool      `json:"available" firestore:"available"` // runner: free to receive offers
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`
}
