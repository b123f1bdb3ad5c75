package services

import (
	"context"
	"errors"
	"testing"

	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	args := m.Called(ctx, tenantID, customerID, limit, offset)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) SumRevenue(ctx context.Context, tenantID uuid.UUID) (float64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*models.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockProductRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta int) error {
	args := m.Called(ctx, tenantID, id, delta)
	return args.Error(0)
}

type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Create(ctx context.Context, req *CreateCouponRequest) (*models.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Update(ctx context.Context, req *UpdateCouponRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCouponService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCouponService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Redeem(ctx context.Context, tenantID uuid.UUID, code string, subtotal float64) (*models.Coupon, float64, error) {
	args := m.Called(ctx, tenantID, code, subtotal)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.Coupon), args.Get(1).(float64), args.Error(2)
}

type OrderServiceTestSuite struct {
	suite.Suite
	mockOrders   *MockOrderRepository
	mockProducts *MockProductRepository
	mockCoupons  *MockCouponService
	service      OrderService
	tenantID     uuid.UUID
	customerID   uuid.UUID
	ctx          context.Context
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.mockOrders = &MockOrderRepository{}
	suite.mockProducts = &MockProductRepository{}
	suite.mockCoupons = &MockCouponService{}
	suite.mockOrders.Test(suite.T())
	suite.mockProducts.Test(suite.T())
	suite.mockCoupons.Test(suite.T())
	suite.service = NewOrderService(suite.mockOrders, suite.mockProducts, suite.mockCoupons)
	suite.tenantID = uuid.New()
	suite.customerID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *OrderServiceTestSuite) TearDownTest() {
	suite.mockOrders.AssertExpectations(suite.T())
	suite.mockProducts.AssertExpectations(suite.T())
	suite.mockCoupons.AssertExpectations(suite.T())
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) product(price float64) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		TenantID:  suite.tenantID,
		SKU:       "SKU-" + uuid.NewString()[:8],
		Name:      "Widget",
		UnitPrice: price,
		Stock:     100,
		Active:    true,
	}
}

func (suite *OrderServiceTestSuite) TestCreate_TotalsComputedServerSide() {
	p1 := suite.product(100)
	p2 := suite.product(40)

	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p1.ID).Return(p1, nil)
	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p2.ID).Return(p2, nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p1.ID, -2).Return(nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p2.ID, -1).Return(nil)
	suite.mockOrders.On("Create", suite.ctx, mock.AnythingOfType("*models.Order")).Return(nil)

	order, err := suite.service.Create(suite.ctx, &CreateOrderRequest{
		TenantID:   suite.tenantID,
		CustomerID: suite.customerID,
		Items: []OrderItemRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
		},
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.OrderStatusPending, order.Status)
	assert.Equal(suite.T(), 240.0, order.Subtotal)
	assert.Equal(suite.T(), 240.0, order.Total)
	assert.Len(suite.T(), order.Items, 2)
	assert.Equal(suite.T(), 100.0, order.Items[0].UnitPrice)
}

func (suite *OrderServiceTestSuite) TestCreate_CouponDiscountApplied() {
	p := suite.product(200)
	coupon := &models.Coupon{ID: uuid.New(), TenantID: suite.tenantID, Code: "SAVE10"}

	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p.ID).Return(p, nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p.ID, -1).Return(nil)
	suite.mockCoupons.On("Redeem", suite.ctx, suite.tenantID, "SAVE10", 200.0).Return(coupon, 20.0, nil)
	suite.mockOrders.On("Create", suite.ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.CouponID != nil && *o.CouponID == coupon.ID
	})).Return(nil)

	order, err := suite.service.Create(suite.ctx, &CreateOrderRequest{
		TenantID:   suite.tenantID,
		CustomerID: suite.customerID,
		Items:      []OrderItemRequest{{ProductID: p.ID, Quantity: 1}},
		CouponCode: "SAVE10",
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 20.0, order.Discount)
	assert.Equal(suite.T(), 180.0, order.Total)
}

func (suite *OrderServiceTestSuite) TestCreate_InsufficientStockRestocksEarlierLines() {
	p1 := suite.product(100)
	p2 := suite.product(40)

	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p1.ID).Return(p1, nil)
	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p2.ID).Return(p2, nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p1.ID, -2).Return(nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p2.ID, -5).Return(errors.New("insufficient stock"))
	// The already reserved first line goes back.
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p1.ID, 2).Return(nil)

	_, err := suite.service.Create(suite.ctx, &CreateOrderRequest{
		TenantID:   suite.tenantID,
		CustomerID: suite.customerID,
		Items: []OrderItemRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 5},
		},
	})

	assert.Error(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestCreate_CouponFailureRestocks() {
	p := suite.product(100)

	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p.ID).Return(p, nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p.ID, -1).Return(nil)
	suite.mockCoupons.On("Redeem", suite.ctx, suite.tenantID, "DEAD", 100.0).
		Return(nil, 0.0, errors.New("coupon is not usable"))
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, p.ID, 1).Return(nil)

	_, err := suite.service.Create(suite.ctx, &CreateOrderRequest{
		TenantID:   suite.tenantID,
		CustomerID: suite.customerID,
		Items:      []OrderItemRequest{{ProductID: p.ID, Quantity: 1}},
		CouponCode: "DEAD",
	})

	assert.Error(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestCreate_InactiveProductRejected() {
	p := suite.product(100)
	p.Active = false

	suite.mockProducts.On("GetByID", suite.ctx, suite.tenantID, p.ID).Return(p, nil)

	_, err := suite.service.Create(suite.ctx, &CreateOrderRequest{
		TenantID:   suite.tenantID,
		CustomerID: suite.customerID,
		Items:      []OrderItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	assert.Error(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestCreate_EmptyOrderRejected() {
	_, err := suite.service.Create(suite.ctx, &CreateOrderRequest{
		TenantID:   suite.tenantID,
		CustomerID: suite.customerID,
	})
	assert.Error(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestUpdateStatus_ValidTransition() {
	orderID := uuid.New()
	order := &models.Order{ID: orderID, TenantID: suite.tenantID, Status: models.OrderStatusPaid}

	suite.mockOrders.On("GetByID", suite.ctx, suite.tenantID, orderID).Return(order, nil)
	suite.mockOrders.On("UpdateStatus", suite.ctx, suite.tenantID, orderID, models.OrderStatusShipped).Return(nil)

	err := suite.service.UpdateStatus(suite.ctx, suite.tenantID, orderID, models.OrderStatusShipped)
	assert.NoError(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestUpdateStatus_DeliveredIsTerminal() {
	orderID := uuid.New()
	order := &models.Order{ID: orderID, TenantID: suite.tenantID, Status: models.OrderStatusDelivered}

	suite.mockOrders.On("GetByID", suite.ctx, suite.tenantID, orderID).Return(order, nil)

	err := suite.service.UpdateStatus(suite.ctx, suite.tenantID, orderID, models.OrderStatusShipped)
	assert.Error(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestCancel_RestocksItems() {
	orderID := uuid.New()
	productID := uuid.New()
	order := &models.Order{
		ID:       orderID,
		TenantID: suite.tenantID,
		Status:   models.OrderStatusPending,
		Items: []*models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, ProductID: productID, Quantity: 3},
		},
	}

	suite.mockOrders.On("GetByID", suite.ctx, suite.tenantID, orderID).Return(order, nil)
	suite.mockOrders.On("UpdateStatus", suite.ctx, suite.tenantID, orderID, models.OrderStatusCancelled).Return(nil)
	suite.mockProducts.On("AdjustStock", suite.ctx, suite.tenantID, productID, 3).Return(nil)

	err := suite.service.Cancel(suite.ctx, suite.tenantID, orderID)
	assert.NoError(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestMarkPaid_FromPending() {
	orderID := uuid.New()
	order := &models.Order{ID: orderID, TenantID: suite.tenantID, Status: models.OrderStatusPending}

	suite.mockOrders.On("GetByID", suite.ctx, suite.tenantID, orderID).Return(order, nil)
	suite.mockOrders.On("UpdateStatus", suite.ctx, suite.tenantID, orderID, models.OrderStatusPaid).Return(nil)

	err := suite.service.MarkPaid(suite.ctx, suite.tenantID, orderID)
	assert.NoError(suite.T(), err)
}
