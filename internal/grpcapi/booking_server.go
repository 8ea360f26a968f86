package grpcapi

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/service"
)

type BookingServer struct {
	bookings  *service.BookingService
	contracts *service.ContractService
}

func NewBookingServer(bookings *service.BookingService, contracts *service.ContractService) *BookingServer {
	return &BookingServer{bookings: bookings, contracts: contracts}
}

var _ BookingServiceServer = (*BookingServer)(nil)

func (s *BookingServer) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	spaceID, err := f.id("spaceId")
	if err != nil {
		return nil, err
	}
	start, end, err := f.dates("startDate", "endDate")
	if err != nil {
		return nil, err
	}
	res, err := s.bookings.CheckAvailability(ctx, spaceID, start, end)
	if err != nil {
		return nil, err
	}
	out := rangeView(res.Range)
	out["available"] = true
	out["days"] = res.Days
	return message(out)
}

// Quote — публичный расчёт цены, вход не нужен.
func (s *BookingServer) Quote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	spaceID, err := f.id("spaceId")
	if err != nil {
		return nil, err
	}
	start, end, err := f.dates("startDate", "endDate")
	if err != nil {
		return nil, err
	}
	price, err := s.bookings.Quote(ctx, spaceID, start, end)
	if err != nil {
		return nil, err
	}
	return message(priceView(price))
}

func (s *BookingServer) Occupancy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	spaceID, err := f.id("spaceId")
	if err != nil {
		return nil, err
	}
	from, to, err := f.dates("from", "to")
	if err != nil {
		return nil, err
	}
	window, err := calendar.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	occupied, err := s.bookings.Occupancy(ctx, spaceID, window)
	if err != nil {
		return nil, err
	}
	ranges := make([]any, len(occupied))
	for i, r := range occupied {
		ranges[i] = rangeView(r)
	}
	return message(map[string]any{"ranges": ranges})
}

func (s *BookingServer) RequestBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	spaceID, err := f.id("spaceId")
	if err != nil {
		return nil, err
	}
	start, end, err := f.dates("startDate", "endDate")
	if err != nil {
		return nil, err
	}
	b, price, err := s.bookings.RequestBooking(ctx, spaceID, booking.Request{
		Start:   start,
		End:     end,
		Message: f.str("message"),
	})
	if err != nil {
		return nil, err
	}
	return message(map[string]any{"booking": bookingView(b), "price": priceView(price)})
}

func (s *BookingServer) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.GetBooking(ctx, id))
}

// GetBookingHistory: журнал аудита постранично, от старых событий к новым.
func (s *BookingServer) GetBookingHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	events, err := s.bookings.History(ctx, id)
	if err != nil {
		return nil, err
	}
	f := fieldsOf(req)
	return message(pageView(calendar.Paginate(events, f.count("page"), f.count("pageSize")), eventView))
}

// ListBookings: кабинет арендатора (as=tenant) или арендодателя (as=landlord).
func (s *BookingServer) ListBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	var st model.BookingStatus
	if raw := f.str("status"); raw != "" {
		parsed, err := model.ParseBookingStatus(raw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		st = parsed
	}

	var (
		page calendar.Page[model.Booking]
		err  error
	)
	switch f.str("as") {
	case "", "tenant":
		page, err = s.bookings.ListForTenant(ctx, st, f.count("page"), f.count("pageSize"))
	case "landlord":
		page, err = s.bookings.ListForLandlord(ctx, st, f.count("page"), f.count("pageSize"))
	default:
		return nil, status.Error(codes.InvalidArgument, "as must be tenant or landlord")
	}
	if err != nil {
		return nil, err
	}
	return message(pageView(page, bookingView))
}

func (s *BookingServer) ConfirmBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.Confirm(ctx, id))
}

func (s *BookingServer) RejectBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("bookingId")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.Reject(ctx, id, f.str("reason")))
}

func (s *BookingServer) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("bookingId")
	if err != nil {
		return nil, err
	}
	b, refund, err := s.bookings.Cancel(ctx, id, f.str("reason"))
	if err != nil {
		return nil, err
	}
	out := map[string]any{"booking": bookingView(b), "refund": nil}
	if refund != nil {
		out["refund"] = map[string]any{
			"policy":  string(refund.Policy),
			"percent": refund.Percent,
			"amount":  refund.Amount,
		}
	}
	return message(out)
}

func (s *BookingServer) PayBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.Pay(ctx, id))
}

func (s *BookingServer) CheckIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.CheckIn(ctx, id))
}

func (s *BookingServer) RecordCheckout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("bookingId")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.RecordCheckout(ctx, id, f.str("note")))
}

func (s *BookingServer) CompleteBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("bookingId")
	if err != nil {
		return nil, err
	}
	claim, err := f.num("damageClaim")
	if err != nil {
		return nil, err
	}
	return bookingReply(s.bookings.Complete(ctx, id, claim))
}

func (s *BookingServer) OverrideBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("bookingId")
	if err != nil {
		return nil, err
	}
	to, err := model.ParseBookingStatus(f.str("status"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return bookingReply(s.bookings.AdminOverride(ctx, id, to, f.str("reason")))
}

func (s *BookingServer) GenerateContract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.Generate(ctx, id)
	if err != nil {
		return nil, err
	}
	return message(contractView(c))
}

func (s *BookingServer) FinalizeContract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.Finalize(ctx, id)
	if err != nil {
		return nil, err
	}
	return message(contractView(c))
}

// GetContract возвращает договор вместе с HTML-документом текущей ревизии.
func (s *BookingServer) GetContract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("bookingId")
	if err != nil {
		return nil, err
	}
	c, doc, err := s.contracts.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	return message(map[string]any{"contract": contractView(c), "document": string(doc)})
}

func bookingReply(b *model.Booking, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, err
	}
	return message(bookingView(b))
}
