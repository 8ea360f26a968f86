package contract

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
)

var (
	// ErrNotContractable — договор формируется только для подтверждённых бронирований.
	ErrNotContractable = errors.New("booking is not confirmed")
	ErrFinalized       = errors.New("contract is finalized")
)

// Party: сторона договора.
type Party struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

// Terms: снимок условий договора на момент генерации.
type Terms struct {
	BookingID uuid.UUID `json:"bookingId"`
	Revision  int       `json:"revision"`

	SpaceID    uuid.UUID `json:"spaceId"`
	SpaceTitle string    `json:"spaceTitle"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postalCode"`
	SizeSqm    float64   `json:"sizeSqm"`

	Tenant   Party `json:"tenant"`
	Landlord Party `json:"landlord"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Period    string `json:"period"`
	TotalDays int    `json:"totalDays"`

	PricePerDay   int64 `json:"pricePerDay"`
	RentAmount    int64 `json:"rentAmount"`
	ServiceAmount int64 `json:"serviceAmount"`
	DepositAmount int64 `json:"depositAmount"`
	TotalPrice    int64 `json:"totalPrice"`

	CancellationPolicy model.CancellationPolicy `json:"cancellationPolicy"`
	GeneratedAt        time.Time                `json:"generatedAt"`
}

// Contractable — статусы, для которых можно сформировать договор.
func Contractable(s model.BookingStatus) bool {
	return s == model.BookingStatusConfirmed || s == model.BookingStatusInProgress || s == model.BookingStatusCompleted
}

// BuildTerms собирает условия из бронирования, помещения и профилей сторон.
// Цены берутся из бронирования: договор фиксирует то, что было подтверждено.
func BuildTerms(b *model.Booking, space *model.Space, tenant, landlord *model.User, revision int, at time.Time) (Terms, error) {
	if !Contractable(b.Status) {
		return Terms{}, fmt.Errorf("%w: booking %s is %s", ErrNotContractable, b.ID, b.Status)
	}
	r, err := calendar.NewDateRange(b.StartDate.UTC(), b.EndDate.UTC())
	if err != nil {
		return Terms{}, err
	}
	return Terms{
		BookingID:          b.ID,
		Revision:           revision,
		SpaceID:            space.ID,
		SpaceTitle:         b.SpaceName,
		Address:            space.Address,
		City:               space.City,
		PostalCode:         space.PostalCode,
		SizeSqm:            space.SizeSqm,
		Tenant:             partyOf(b.TenantID, tenant),
		Landlord:           partyOf(b.LandlordID, landlord),
		StartDate:          r.Start.Format(calendar.DateLayout),
		EndDate:            r.End.Format(calendar.DateLayout),
		Period:             r.Format(),
		TotalDays:          b.TotalDays,
		PricePerDay:        b.PricePerDay,
		RentAmount:         b.RentAmount,
		ServiceAmount:      b.ServiceAmount,
		DepositAmount:      b.DepositAmount,
		TotalPrice:         b.TotalPrice,
		CancellationPolicy: space.CancellationPolicy,
		GeneratedAt:        at.UTC(),
	}, nil
}

func partyOf(id uuid.UUID, u *model.User) Party {
	p := Party{ID: id}
	if u != nil {
		p.Name = u.DisplayName
		p.Email = u.Email
		p.Phone = u.ContactPhone
	}
	return p
}

// FormatMoney форматирует центы: 123456 -> "1234.56".
func FormatMoney(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// DocumentKey: ключ документа в хранилище.
func DocumentKey(bookingID uuid.UUID, revision int) string {
	return fmt.Sprintf("contracts/%s/r%d.html", bookingID, revision)
}
