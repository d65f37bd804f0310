//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
)

type StockRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   *db.StockRepository
	ctx    context.Context
}

func (s *StockRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewStockRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *StockRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *StockRepositorySuite) TestSaveAndLoad() {
	max := int64(50)
	restocked := time.Now().UTC().Truncate(time.Microsecond)
	rec := helpers.CreateTestStockRecord(func(r *domain.StockRecord) {
		r.Reserved = 2
		r.Maximum = &max
		r.LastRestockedAt = &restocked
	})

	s.Require().NoError(s.repo.Save(s.ctx, rec))

	loaded, err := s.repo.Load(s.ctx, rec.ProductID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Equal(rec.OnHand, loaded.OnHand)
	s.Equal(rec.Reserved, loaded.Reserved)
	s.Equal(rec.Location, loaded.Location)
	s.Require().NotNil(loaded.Maximum)
	s.Equal(max, *loaded.Maximum)
	s.Require().NotNil(loaded.LastRestockedAt)
	s.WithinDuration(restocked, *loaded.LastRestockedAt, time.Millisecond)
}

func (s *StockRepositorySuite) TestLoadMissing() {
	loaded, err := s.repo.Load(s.ctx, "SKU-NOPE")
	s.NoError(err)
	s.Nil(loaded)
}

func (s *StockRepositorySuite) TestSaveUpserts() {
	rec := helpers.CreateTestStockRecord()
	s.Require().NoError(s.repo.Save(s.ctx, rec))

	rec.OnHand = 4
	rec.Active = false
	s.Require().NoError(s.repo.Save(s.ctx, rec))

	loaded, err := s.repo.Load(s.ctx, rec.ProductID)
	s.Require().NoError(err)
	s.Equal(int64(4), loaded.OnHand)
	s.False(loaded.Active)
	s.Nil(loaded.Maximum)
}

func (s *StockRepositorySuite) TestCheckConstraintRejectsOverReservation() {
	rec := helpers.CreateTestStockRecord(func(r *domain.StockRecord) {
		r.Reserved = 11
	})
	s.Error(s.repo.Save(s.ctx, rec))
}

func (s *StockRepositorySuite) TestSaveBatchAndFindAll() {
	records := helpers.CreateTestStockRecords(6)
	s.Require().NoError(s.repo.SaveBatch(s.ctx, records))

	all, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 6)
	for i := 1; i < len(all); i++ {
		s.Less(all[i-1].ProductID, all[i].ProductID)
	}
}

func (s *StockRepositorySuite) TestSaveBatchRollsBack() {
	records := helpers.CreateTestStockRecords(3)
	records[2].Reserved = records[2].OnHand + 1

	s.Error(s.repo.SaveBatch(s.ctx, records))

	all, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *StockRepositorySuite) TestReportRepository() {
	s.Require().NoError(s.repo.SaveBatch(s.ctx, helpers.CreateTestStockRecords(6)))

	sqlDB, err := db.OpenReportDB(s.testDB.URL)
	s.Require().NoError(err)
	defer sqlDB.Close()

	report := db.NewStockReportRepository(sqlDB, helpers.TestLogger())

	summaries, err := report.LocationSummaries(s.ctx)
	s.Require().NoError(err)
	s.Len(summaries, 3)

	var total int64
	for _, sum := range summaries {
		total += sum.Products
	}
	s.Equal(int64(6), total)

	// on_hand is 0,2,4,6,8,10 against a minimum of 5
	low, err := report.CountLowStock(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), low)
}

func (s *StockRepositorySuite) TestLedgerRoundTrip() {
	s.Require().NoError(s.repo.Save(s.ctx, helpers.CreateTestStockRecord()))

	ledger := services.NewLedger(s.repo, helpers.TestLogger())
	s.Require().NoError(ledger.Warm(s.ctx))

	res, err := ledger.Reserve(s.ctx, "SKU-001", 4)
	s.Require().NoError(err)
	s.Require().NoError(ledger.Commit(s.ctx, res.ID))

	loaded, err := s.repo.Load(s.ctx, "SKU-001")
	s.Require().NoError(err)
	s.Equal(int64(6), loaded.OnHand)
	s.Equal(int64(0), loaded.Reserved)
}

func TestStockRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(StockRepositorySuite))
}
