package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/arborhaus/arborhaus-backend/internal/cart"
	catalogsvc "github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/orders"
	pkgauth "github.com/arborhaus/arborhaus-backend/pkg/auth"
	"github.com/arborhaus/arborhaus-backend/pkg/config"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) ImportPriceRows(ctx context.Context, inputs []catalogsvc.PriceRowInput) (*catalogsvc.ImportResult, error) {
	return &catalogsvc.ImportResult{}, nil
}

type stubCartService struct{}

func (stubCartService) GetCart(ctx context.Context, snap *catalogsvc.Snapshot, userID uuid.UUID) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCartService) AddLine(ctx context.Context, snap *catalogsvc.Snapshot, userID uuid.UUID, input cartsvc.AddLineInput) (*models.CartLine, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCartService) Validate(ctx context.Context, snap *catalogsvc.Snapshot, userID uuid.UUID) (*cartsvc.Result, error) {
	panic("unimplemented")
}

func (stubCartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) error {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

type stubOrdersService struct {
	listStaff func(ctx context.Context, params pagination.Params) (*orders.StaffList, error)
}

func (stubOrdersService) Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkViewed(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) error {
	return nil
}

func (stubOrdersService) GetForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetForStaff(ctx context.Context, orderID uuid.UUID) (*orders.Detail, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForCustomer(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error) {
	return &pagination.Page[models.Order]{}, nil
}

func (s stubOrdersService) ListForStaff(ctx context.Context, params pagination.Params) (*orders.StaffList, error) {
	if s.listStaff != nil {
		return s.listStaff(ctx, params)
	}
	return &orders.StaffList{}, nil
}

func (stubOrdersService) PostMessage(ctx context.Context, input orders.MessageInput) (*models.OrderMessage, error) {
	panic("unimplemented")
}

func (stubOrdersService) EditMessage(ctx context.Context, actorID, messageID uuid.UUID, body string) (*models.OrderMessage, error) {
	panic("unimplemented")
}

func (stubOrdersService) DeleteMessage(ctx context.Context, actorID, messageID uuid.UUID) error {
	panic("unimplemented")
}

func (stubOrdersService) ListMessages(ctx context.Context, orderID, viewerID uuid.UUID, viewerRole enums.ActorRole) ([]models.OrderMessage, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, svc orders.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              stubPinger{},
		CatalogService:  stubCatalogService{},
		CartService:     stubCartService{},
		CheckoutService: stubCheckoutService{},
		OrdersService:   svc,
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPriceEndpointSkipsAuth(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/price", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusUnauthorized {
		t.Fatalf("price quote must not require a token, got 401")
	}
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query params got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for customer orders got %d", resp.Code)
	}
}

func TestStaffGroupRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{})

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/staff/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on staff group got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodGet, "/api/v1/staff/orders", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff listing got %d", resp.Code)
	}
}

func TestStaffListPassesPagination(t *testing.T) {
	cfg := testConfig()
	var gotLimit int
	svc := stubOrdersService{
		listStaff: func(ctx context.Context, params pagination.Params) (*orders.StaffList, error) {
			gotLimit = params.Limit
			return &orders.StaffList{
				Items: []orders.StaffOrderSummary{
					{Order: models.Order{ID: uuid.New(), Code: "AH-TESTCODE"}, Attention: true},
				},
			}, nil
		},
	}
	router := newTestRouter(cfg, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/staff/orders?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff listing got %d", resp.Code)
	}
	if gotLimit != 5 {
		t.Fatalf("expected limit 5 to reach the service, got %d", gotLimit)
	}
}
