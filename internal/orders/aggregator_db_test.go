package orders

import (
	"fmt"
	"os"
	"testing"
	"time"

	"ledger-service/internal/model"
	"ledger-service/internal/stock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB() (*gorm.DB, error) {
	getenv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("TEST_DB_HOST", "localhost"),
		getenv("TEST_DB_PORT", "5432"),
		getenv("TEST_DB_USER", "postgres"),
		getenv("TEST_DB_PASSWORD", "password"),
		getenv("TEST_DB_NAME", "ledger_service_test"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		return nil, fmt.Errorf("ping failed")
	}
	return db, nil
}

type AggregatorTestSuite struct {
	suite.Suite
	db         *gorm.DB
	aggregator *Aggregator
	business   *model.Business
}

func TestAggregatorSuite(t *testing.T) {
	db, err := openTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	suite.Run(t, &AggregatorTestSuite{db: db})
}

func (s *AggregatorTestSuite) SetupSuite() {
	require.NoError(s.T(), s.db.AutoMigrate(
		&model.Business{}, &model.Product{}, &model.Inventory{},
		&model.Order{}, &model.OrderItem{},
	))
	s.aggregator = NewAggregator(s.db)
}

func (s *AggregatorTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM order_items")
	s.db.Exec("DELETE FROM orders")
	s.db.Exec("DELETE FROM inventories")
	s.db.Exec("DELETE FROM products")
	s.db.Exec("DELETE FROM businesses")

	s.business = &model.Business{Code: "FZ-100001", Password: "x", RecoveryContact: "09120000000"}
	require.NoError(s.T(), s.db.Create(s.business).Error)
}

func (s *AggregatorTestSuite) createProduct(code string, price, cost int64, unlimited bool, quantity string) *model.Product {
	product := &model.Product{
		BusinessID:     s.business.ID,
		Code:           code,
		Name:           "Product " + code,
		Price:          price,
		Cost:           cost,
		UnlimitedStock: unlimited,
		IsActive:       true,
	}
	require.NoError(s.T(), s.db.Create(product).Error)
	inventory := &model.Inventory{ProductID: product.ID, Quantity: decimal.RequireFromString(quantity)}
	require.NoError(s.T(), s.db.Create(inventory).Error)
	return product
}

func (s *AggregatorTestSuite) createOrder() *model.Order {
	order := &model.Order{
		BusinessID: s.business.ID,
		Code:       fmt.Sprintf("FZ-0UA-%02d", time.Now().UnixNano()%100),
		OrderDate:  time.Now(),
		Status:     model.OrderStatusOpen,
	}
	require.NoError(s.T(), s.db.Create(order).Error)
	return order
}

func (s *AggregatorTestSuite) quantity(productID uint) decimal.Decimal {
	inventory, err := stock.NewLedger(s.db).Inventory(productID)
	require.NoError(s.T(), err)
	return inventory.Quantity
}

func (s *AggregatorTestSuite) TestReplaceItemsComputesTotalAndDebitsStock() {
	product := s.createProduct("10001", 250, 150, false, "10")
	order := s.createOrder()

	warnings, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
	})

	require.NoError(s.T(), err)
	require.Empty(s.T(), warnings)
	require.True(s.T(), order.TotalAmount.Equal(decimal.NewFromInt(500)))
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(8)))

	var stored model.Order
	require.NoError(s.T(), s.db.Preload("Items").First(&stored, order.ID).Error)
	require.True(s.T(), stored.TotalAmount.Equal(decimal.NewFromInt(500)))
	require.Len(s.T(), stored.Items, 1)
	require.Equal(s.T(), int64(250), stored.Items[0].Price)
	require.Equal(s.T(), int64(150), stored.Items[0].Cost)
	require.True(s.T(), stored.Items[0].Profit.Equal(decimal.NewFromInt(200)))
}

func (s *AggregatorTestSuite) TestReplaceItemsReplacesFullSet() {
	first := s.createProduct("10002", 100, 60, false, "100")
	second := s.createProduct("10003", 200, 120, false, "100")
	order := s.createOrder()

	_, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: first.ID, Quantity: decimal.NewFromInt(1)},
	})
	require.NoError(s.T(), err)

	_, err = s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: second.ID, Quantity: decimal.NewFromInt(3)},
	})
	require.NoError(s.T(), err)

	var items []model.OrderItem
	require.NoError(s.T(), s.db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(s.T(), items, 1)
	require.Equal(s.T(), second.ID, items[0].ProductID)
	require.True(s.T(), order.TotalAmount.Equal(decimal.NewFromInt(600)))
}

func (s *AggregatorTestSuite) TestReplaceItemsInsufficientStockWarnsButCreates() {
	product := s.createProduct("10004", 100, 60, false, "1")
	order := s.createOrder()

	warnings, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: product.ID, Quantity: decimal.NewFromInt(5)},
	})

	// The shortfall is reported but the item is still created and the total
	// still counts it.
	require.NoError(s.T(), err)
	require.Len(s.T(), warnings, 1)
	require.Equal(s.T(), product.ID, warnings[0].ProductID)
	require.True(s.T(), order.TotalAmount.Equal(decimal.NewFromInt(500)))
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(1)))
}

func (s *AggregatorTestSuite) TestReplaceItemsUnlimitedStockUntouched() {
	product := s.createProduct("10005", 100, 60, true, "7")
	order := s.createOrder()

	warnings, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: product.ID, Quantity: decimal.NewFromInt(50)},
	})

	require.NoError(s.T(), err)
	require.Empty(s.T(), warnings)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(7)))
}

func (s *AggregatorTestSuite) TestReplaceItemsRejectsNegativeQuantity() {
	product := s.createProduct("10006", 100, 60, false, "10")
	order := s.createOrder()

	_, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: product.ID, Quantity: decimal.NewFromInt(-1)},
	})

	require.ErrorIs(s.T(), err, ErrNegativeQuantity)

	// The transaction rolled back: no items, total untouched.
	var count int64
	s.db.Model(&model.OrderItem{}).Where("order_id = ?", order.ID).Count(&count)
	require.Zero(s.T(), count)
}

func (s *AggregatorTestSuite) TestReplaceItemsScopedToBusiness() {
	other := &model.Business{Code: "FZ-200002", Password: "x", RecoveryContact: "09121111111"}
	require.NoError(s.T(), s.db.Create(other).Error)
	foreign := &model.Product{BusinessID: other.ID, Code: "10007", Name: "Foreign", Price: 10, Cost: 5}
	require.NoError(s.T(), s.db.Create(foreign).Error)

	order := s.createOrder()
	_, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: foreign.ID, Quantity: decimal.NewFromInt(1)},
	})

	require.Error(s.T(), err)
}

func (s *AggregatorTestSuite) TestRecomputeTotalIdempotent() {
	product := s.createProduct("10008", 100, 60, true, "0")
	order := s.createOrder()

	_, err := s.aggregator.ReplaceItems(order, []model.OrderItem{
		{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
	})
	require.NoError(s.T(), err)
	first := order.TotalAmount

	require.NoError(s.T(), s.aggregator.RecomputeTotal(order))
	require.True(s.T(), order.TotalAmount.Equal(first))
}
