package contract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/model"
)

func fixture() (*model.Booking, *model.Space, *model.User, *model.User) {
	space := &model.Space{
		ID:                 uuid.New(),
		OwnerID:            uuid.New(),
		Title:              "Loft",
		Address:            "Oranienstr. 12",
		City:               "Berlin",
		PostalCode:         "10999",
		SizeSqm:            80,
		CancellationPolicy: model.CancellationModerate,
	}
	tenant := &model.User{ID: uuid.New(), DisplayName: "Tom <Tenant>", Email: "tom@example.org"}
	landlord := &model.User{ID: space.OwnerID, DisplayName: "Lena", Email: "lena@example.org"}
	b := &model.Booking{
		ID:            uuid.New(),
		SpaceID:       space.ID,
		TenantID:      tenant.ID,
		LandlordID:    landlord.ID,
		SpaceName:     "Loft (snapshot)",
		PricePerDay:   10000,
		StartDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		TotalDays:     3,
		RentAmount:    30000,
		ServiceAmount: 3000,
		DepositAmount: 50000,
		TotalPrice:    33000,
		Status:        model.BookingStatusConfirmed,
	}
	return b, space, tenant, landlord
}

func TestBuildTerms(t *testing.T) {
	b, space, tenant, landlord := fixture()
	terms, err := BuildTerms(b, space, tenant, landlord, 1, time.Now())
	if err != nil {
		t.Fatalf("BuildTerms: %v", err)
	}
	if terms.SpaceTitle != "Loft (snapshot)" || terms.StartDate != "2025-03-10" || terms.EndDate != "2025-03-12" {
		t.Fatalf("unexpected terms %+v", terms)
	}
	if terms.Tenant.Email != tenant.Email || terms.Landlord.ID != landlord.ID {
		t.Fatalf("unexpected parties %+v / %+v", terms.Tenant, terms.Landlord)
	}

	b.Status = model.BookingStatusRequested
	if _, err := BuildTerms(b, space, tenant, landlord, 1, time.Now()); !errors.Is(err, ErrNotContractable) {
		t.Fatalf("expected ErrNotContractable, got %v", err)
	}
}

func TestRender(t *testing.T) {
	b, space, tenant, landlord := fixture()
	terms, _ := BuildTerms(b, space, tenant, landlord, 2, time.Now())
	doc, err := NewRenderer().Render(terms)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(doc)
	for _, want := range []string{"330.00", "300.00", "30.00", "500.00", "50% refund", "Revision 2", "10.03.2025 – 12.03.2025", "Tom &lt;Tenant&gt;"} {
		if !strings.Contains(html, want) {
			t.Fatalf("document does not contain %q", want)
		}
	}
	if !IsDocument(doc) {
		t.Fatalf("unexpected document prefix")
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 123456: "1234.56", -250: "-2.50"}
	for in, want := range cases {
		if got := FormatMoney(in); got != want {
			t.Fatalf("FormatMoney(%d) = %q, want %q", in, got, want)
		}
	}
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestStores(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"s3":     &S3Store{client: &fakeS3{objects: map[string][]byte{}}, bucket: "contracts"},
	}
	ctx := context.Background()
	key := DocumentKey(uuid.New(), 1)
	for name, s := range stores {
		if err := s.Put(ctx, key, []byte("<!DOCTYPE html>doc"), ContentType); err != nil {
			t.Fatalf("%s Put: %v", name, err)
		}
		got, err := s.Get(ctx, key)
		if err != nil || string(got) != "<!DOCTYPE html>doc" {
			t.Fatalf("%s Get: %q, %v", name, got, err)
		}
		if _, err := s.Get(ctx, "missing"); err == nil {
			t.Fatalf("%s: expected error for missing key", name)
		}
	}
}
