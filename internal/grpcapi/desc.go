package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Сообщения сервисов — google.protobuf.Struct: поля запросов и ответов
// в camelCase, даты "2006-01-02", суммы в центах.
const (
	BookingServiceName = "spacefindr.booking.v1.BookingService"
	ListingServiceName = "spacefindr.listing.v1.ListingService"
)

// FullMethod: полное имя метода для Invoke и перехватчиков.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

type handlerFunc[S any] func(srv S, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// unary собирает описание метода так же, как это делает protoc-gen-go-grpc,
// и переводит доменные ошибки в статусы до перехватчиков.
func unary[S any](service, name string, fn handlerFunc[S]) grpc.MethodDesc {
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(service, name)}
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req interface{}) (interface{}, error) {
				out, err := fn(srv.(S), ctx, req.(*structpb.Struct))
				if err != nil {
					return nil, toStatus(ctx, err)
				}
				return out, nil
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			i := *info
			i.Server = srv
			return interceptor(ctx, in, &i, call)
		},
	}
}

// BookingServiceServer: бронирования, цены, календарь и договоры.
type BookingServiceServer interface {
	CheckAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Quote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Occupancy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBookingHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBookings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PayBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordCheckout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OverrideBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateContract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FinalizeContract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetContract(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func bookingMethod(name string, fn handlerFunc[BookingServiceServer]) grpc.MethodDesc {
	return unary(BookingServiceName, name, fn)
}

var bookingServiceDesc = grpc.ServiceDesc{
	ServiceName: BookingServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		bookingMethod("CheckAvailability", BookingServiceServer.CheckAvailability),
		bookingMethod("Quote", BookingServiceServer.Quote),
		bookingMethod("Occupancy", BookingServiceServer.Occupancy),
		bookingMethod("RequestBooking", BookingServiceServer.RequestBooking),
		bookingMethod("GetBooking", BookingServiceServer.GetBooking),
		bookingMethod("GetBookingHistory", BookingServiceServer.GetBookingHistory),
		bookingMethod("ListBookings", BookingServiceServer.ListBookings),
		bookingMethod("ConfirmBooking", BookingServiceServer.ConfirmBooking),
		bookingMethod("RejectBooking", BookingServiceServer.RejectBooking),
		bookingMethod("CancelBooking", BookingServiceServer.CancelBooking),
		bookingMethod("PayBooking", BookingServiceServer.PayBooking),
		bookingMethod("CheckIn", BookingServiceServer.CheckIn),
		bookingMethod("RecordCheckout", BookingServiceServer.RecordCheckout),
		bookingMethod("CompleteBooking", BookingServiceServer.CompleteBooking),
		bookingMethod("OverrideBooking", BookingServiceServer.OverrideBooking),
		bookingMethod("GenerateContract", BookingServiceServer.GenerateContract),
		bookingMethod("FinalizeContract", BookingServiceServer.FinalizeContract),
		bookingMethod("GetContract", BookingServiceServer.GetContract),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spacefindr/booking/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&bookingServiceDesc, srv)
}

// ListingServiceServer — объявления, наводки на пустующие помещения и профили.
type ListingServiceServer interface {
	CreateSpace(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSpace(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePricing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSpaceActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMySpaces(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchSpaces(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitVacancyReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReviewVacancyReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PayVacancyReward(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListVacancyReports(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func listingMethod(name string, fn handlerFunc[ListingServiceServer]) grpc.MethodDesc {
	return unary(ListingServiceName, name, fn)
}

var listingServiceDesc = grpc.ServiceDesc{
	ServiceName: ListingServiceName,
	HandlerType: (*ListingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		listingMethod("CreateSpace", ListingServiceServer.CreateSpace),
		listingMethod("GetSpace", ListingServiceServer.GetSpace),
		listingMethod("UpdatePricing", ListingServiceServer.UpdatePricing),
		listingMethod("SetSpaceActive", ListingServiceServer.SetSpaceActive),
		listingMethod("ListMySpaces", ListingServiceServer.ListMySpaces),
		listingMethod("SearchSpaces", ListingServiceServer.SearchSpaces),
		listingMethod("SubmitVacancyReport", ListingServiceServer.SubmitVacancyReport),
		listingMethod("ReviewVacancyReport", ListingServiceServer.ReviewVacancyReport),
		listingMethod("PayVacancyReward", ListingServiceServer.PayVacancyReward),
		listingMethod("ListVacancyReports", ListingServiceServer.ListVacancyReports),
		listingMethod("SyncProfile", ListingServiceServer.SyncProfile),
		listingMethod("GetProfile", ListingServiceServer.GetProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spacefindr/listing/v1/listing.proto",
}

func RegisterListingServiceServer(s grpc.ServiceRegistrar, srv ListingServiceServer) {
	s.RegisterService(&listingServiceDesc, srv)
}
