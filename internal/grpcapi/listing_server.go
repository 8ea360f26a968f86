package grpcapi

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/service"
	"github.com/spacefindr/core/internal/spaces"
	"github.com/spacefindr/core/internal/vacancy"
)

type ListingServer struct {
	spaces   *service.SpaceService
	vacancy  *service.VacancyService
	identity *service.IdentityService
}

func NewListingServer(spaces *service.SpaceService, vacancy *service.VacancyService, identity *service.IdentityService) *ListingServer {
	return &ListingServer{spaces: spaces, vacancy: vacancy, identity: identity}
}

var _ ListingServiceServer = (*ListingServer)(nil)

// CreateSpace принимает поля формы объявления как есть (см. spaces.Form).
func (s *ListingServer) CreateSpace(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var form spaces.Form
	if err := decode(req, &form); err != nil {
		return nil, err
	}
	return spaceReply(s.spaces.Create(ctx, form))
}

func (s *ListingServer) GetSpace(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("spaceId")
	if err != nil {
		return nil, err
	}
	return spaceReply(s.spaces.Get(ctx, id))
}

func (s *ListingServer) UpdatePricing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("spaceId")
	if err != nil {
		return nil, err
	}
	var p service.Pricing
	if p.PricePerDay, err = f.num("pricePerDay"); err != nil {
		return nil, err
	}
	if p.PricePerWeek, err = f.optNum("pricePerWeek"); err != nil {
		return nil, err
	}
	if p.PricePerMonth, err = f.optNum("pricePerMonth"); err != nil {
		return nil, err
	}
	return spaceReply(s.spaces.UpdatePricing(ctx, id, p))
}

func (s *ListingServer) SetSpaceActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("spaceId")
	if err != nil {
		return nil, err
	}
	if !f.has("active") {
		return nil, status.Error(codes.InvalidArgument, "active is required")
	}
	return spaceReply(s.spaces.SetActive(ctx, id, f.flag("active")))
}

func (s *ListingServer) ListMySpaces(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	page, err := s.spaces.ListMine(ctx, f.count("page"), f.count("pageSize"))
	if err != nil {
		return nil, err
	}
	return message(pageView(page, spaceView))
}

func (s *ListingServer) SearchSpaces(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	page, err := s.spaces.Search(ctx, f.str("city"), model.SpaceCategory(f.str("category")), f.count("page"), f.count("pageSize"))
	if err != nil {
		return nil, err
	}
	return message(pageView(page, spaceView))
}

// SubmitVacancyReport доступен без входа.
func (s *ListingServer) SubmitVacancyReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	r, err := s.vacancy.Submit(ctx, vacancy.Submission{
		ReporterName:  f.str("reporterName"),
		ReporterEmail: f.str("reporterEmail"),
		ReporterPhone: f.str("reporterPhone"),
		Address:       f.str("address"),
		City:          f.str("city"),
		PostalCode:    f.str("postalCode"),
		SizeSqm:       f.optFloat("sizeSqm"),
		VacantSince:   f.str("vacantSince"),
		Description:   f.str("description"),
		PhotoURL:      f.str("photoUrl"),
	})
	return vacancyReply(r, err)
}

func (s *ListingServer) ReviewVacancyReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	id, err := f.id("reportId")
	if err != nil {
		return nil, err
	}
	spaceID, err := f.optID("spaceId")
	if err != nil {
		return nil, err
	}
	return vacancyReply(s.vacancy.Review(ctx, id, service.ReviewRequest{
		To:      model.VacancyStatus(f.str("status")),
		Note:    f.str("note"),
		SpaceID: spaceID,
	}))
}

func (s *ListingServer) PayVacancyReward(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("reportId")
	if err != nil {
		return nil, err
	}
	return vacancyReply(s.vacancy.PayReward(ctx, id))
}

func (s *ListingServer) ListVacancyReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	page, err := s.vacancy.List(ctx, model.VacancyStatus(f.str("status")), f.count("page"), f.count("pageSize"))
	if err != nil {
		return nil, err
	}
	return message(pageView(page, vacancyView))
}

func (s *ListingServer) SyncProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fieldsOf(req)
	u, err := s.identity.SyncProfile(ctx, f.str("displayName"), f.str("email"), f.str("contactPhone"))
	if err != nil {
		return nil, err
	}
	return message(userView(u))
}

func (s *ListingServer) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fieldsOf(req).id("userId")
	if err != nil {
		return nil, err
	}
	// контакты видят сам пользователь и администраторы
	if a, ok := booking.ActorFrom(ctx); !ok || (a.ID != id && !a.IsAdmin()) {
		return nil, status.Error(codes.PermissionDenied, "profile is private")
	}
	u, err := s.identity.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, status.Errorf(codes.NotFound, "profile %s not found", id)
	}
	return message(userView(u))
}

func spaceReply(sp *model.Space, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, err
	}
	return message(spaceView(sp))
}

func vacancyReply(r *model.VacancyReport, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, err
	}
	return message(vacancyView(r))
}
