// model/rental.go
package model

import "time"

type RentalStatus string

const (
	RentalActive   RentalStatus = "active"
	RentalReturned RentalStatus = "returned"

	// RentalOverdue is never stored; see Rental.EffectiveStatus.
	RentalOverdue RentalStatus = "overdue"
)

// DefaultRentalPeriod is how long a copy may be kept before it is overdue.
const DefaultRentalPeriod = 14 * 24 * time.Hour

type Rental struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	BookID     string       `json:"book_id"`
	Status     RentalStatus `json:"status"`
	RentedAt   time.Time    `json:"rented_at"`
	DueDate    time.Time    `json:"due_date"`
	ReturnedAt *time.Time   `json:"returned_at,omitempty"`
}

// IsOverdue reports whether an active rental is past its due date at now.
func (r *Rental) IsOverdue(now time.Time) bool {
	return r.Status == RentalActive && now.After(r.DueDate)
}

// EffectiveStatus is the stored status, or overdue for an active rental past due.
func (r *Rental) EffectiveStatus(now time.Time) RentalStatus {
	if r.IsOverdue(now) {
		return RentalOverdue
	}
	return r.Status
}

// RentalDetail is a rental joined with the book and user it references.
type RentalDetail struct {
	Rental
	Book BookSummary `json:"book"`
	User UserSummary `json:"user"`
}

// RentalView is what callers see: the detail plus status derived at read time.
type RentalView struct {
	RentalDetail
	EffectiveStatus RentalStatus `json:"effective_status"`
	Overdue         bool         `json:"overdue"`
}

// View annotates d with the status derived from now.
func (d RentalDetail) View(now time.Time) RentalView {
	return RentalView{
		RentalDetail:    d,
		EffectiveStatus: d.EffectiveStatus(now),
		Overdue:         d.IsOverdue(now),
	}
}
