package stock

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"ledger-service/internal/model"

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

type StockLedgerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	ledger *Ledger
}

func TestStockLedgerSuite(t *testing.T) {
	db, err := openTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	suite.Run(t, &StockLedgerTestSuite{db: db})
}

func (s *StockLedgerTestSuite) SetupSuite() {
	require.NoError(s.T(), s.db.AutoMigrate(&model.Business{}, &model.Product{}, &model.Inventory{}))
	s.ledger = NewLedger(s.db)
}

func (s *StockLedgerTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM inventories")
	s.db.Exec("DELETE FROM products")
	s.db.Exec("DELETE FROM businesses")
}

func (s *StockLedgerTestSuite) createProduct(code string, unlimited bool, quantity, threshold string) *model.Product {
	business := &model.Business{Code: "FZ-" + code, Password: "x", RecoveryContact: code}
	require.NoError(s.T(), s.db.Create(business).Error)

	product := &model.Product{
		BusinessID:     business.ID,
		Code:           code,
		Name:           "Product " + code,
		Cost:           100,
		Price:          150,
		UnlimitedStock: unlimited,
		IsActive:       true,
	}
	require.NoError(s.T(), s.db.Create(product).Error)

	inventory := &model.Inventory{
		ProductID:         product.ID,
		Quantity:          decimal.RequireFromString(quantity),
		LowStockThreshold: decimal.RequireFromString(threshold),
	}
	require.NoError(s.T(), s.db.Create(inventory).Error)
	return product
}

func (s *StockLedgerTestSuite) quantity(productID uint) decimal.Decimal {
	inventory, err := s.ledger.Inventory(productID)
	require.NoError(s.T(), err)
	return inventory.Quantity
}

func (s *StockLedgerTestSuite) TestAdd() {
	product := s.createProduct("10001", false, "5", "0")

	err := s.ledger.Add(product.ID, decimal.NewFromInt(3))

	require.NoError(s.T(), err)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(8)))
}

func (s *StockLedgerTestSuite) TestAddUnlimitedIsNoop() {
	product := s.createProduct("10002", true, "5", "0")

	err := s.ledger.Add(product.ID, decimal.NewFromInt(3))

	require.NoError(s.T(), err)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(5)))
}

func (s *StockLedgerTestSuite) TestAddNegativeAmount() {
	product := s.createProduct("10003", false, "5", "0")

	err := s.ledger.Add(product.ID, decimal.NewFromInt(-1))

	require.ErrorIs(s.T(), err, ErrNegativeAmount)
}

func (s *StockLedgerTestSuite) TestRemove() {
	product := s.createProduct("10004", false, "5", "0")

	ok, err := s.ledger.Remove(product.ID, decimal.NewFromInt(3))

	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(2)))
}

func (s *StockLedgerTestSuite) TestRemoveInsufficientLeavesQuantityUnchanged() {
	product := s.createProduct("10005", false, "2", "0")

	ok, err := s.ledger.Remove(product.ID, decimal.NewFromInt(3))

	require.NoError(s.T(), err)
	require.False(s.T(), ok)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.NewFromInt(2)))
}

func (s *StockLedgerTestSuite) TestRemoveExactQuantity() {
	product := s.createProduct("10006", false, "3", "0")

	ok, err := s.ledger.Remove(product.ID, decimal.NewFromInt(3))

	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.Zero))
}

func (s *StockLedgerTestSuite) TestRemoveUnlimitedAlwaysSucceeds() {
	product := s.createProduct("10007", true, "0", "0")

	ok, err := s.ledger.Remove(product.ID, decimal.NewFromInt(1000))

	require.NoError(s.T(), err)
	require.True(s.T(), ok)
}

func (s *StockLedgerTestSuite) TestConcurrentRemovesNeverOversell() {
	// 10 goroutines each remove 1 from a quantity of 5: exactly 5 must
	// succeed and the final quantity must be 0, never negative.
	product := s.createProduct("10008", false, "5", "0")

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ledger.Remove(product.ID, decimal.NewFromInt(1))
			require.NoError(s.T(), err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	require.Equal(s.T(), 5, succeeded)
	require.True(s.T(), s.quantity(product.ID).Equal(decimal.Zero))
}

func (s *StockLedgerTestSuite) TestIsLow() {
	product := s.createProduct("10009", false, "2", "5")

	low, err := s.ledger.IsLow(product.ID)

	require.NoError(s.T(), err)
	require.True(s.T(), low)
}

func (s *StockLedgerTestSuite) TestIsLowAboveThreshold() {
	product := s.createProduct("10010", false, "10", "5")

	low, err := s.ledger.IsLow(product.ID)

	require.NoError(s.T(), err)
	require.False(s.T(), low)
}

func (s *StockLedgerTestSuite) TestIsLowZeroThreshold() {
	product := s.createProduct("10011", false, "0", "0")

	low, err := s.ledger.IsLow(product.ID)

	require.NoError(s.T(), err)
	require.False(s.T(), low)
}

func (s *StockLedgerTestSuite) TestIsLowUnlimited() {
	product := s.createProduct("10012", true, "0", "5")

	low, err := s.ledger.IsLow(product.ID)

	require.NoError(s.T(), err)
	require.False(s.T(), low)
}
