package repository

import (
	"context"
	"time"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/db"
)

// ReportRepository backs the read-only query views. Every query here is a
// plain SELECT; nothing in this file writes.
type ReportRepository struct {
	*db.DB
}

func NewReportRepository(conn *db.DB) *ReportRepository {
	return &ReportRepository{
		conn,
	}
}

func (r *ReportRepository) TotalOutstanding(ctx context.Context) (int64, error) {
	var total int64
	err := r.Read(ctx).
		Model(&CustomerEntity{}).
		Select("COALESCE(SUM(total_credit), 0)").
		Row().
		Scan(&total)
	if err != nil {
		return 0, translate("sum outstanding", err, nil)
	}
	return total, nil
}

// TopCustomer is the customer with the highest balance, ties broken by id.
func (r *ReportRepository) TopCustomer(ctx context.Context) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Order("total_credit DESC").
		Order("id ASC").
		Limit(1).
		Find(&entity).
		Error
	if err != nil {
		return nil, translate("top customer", err, nil)
	}
	if entity.ID == 0 {
		return nil, nil
	}
	return toCustomerModel(&entity), nil
}

type openCreditRow struct {
	TransactionID int64  `gorm:"column:transaction_id"`
	CustomerID    int64  `gorm:"column:customer_id"`
	CustomerName  string `gorm:"column:customer_name"`
	Credit        int64  `gorm:"column:credit"`
	Date          int64  `gorm:"column:date"`
}

// OldestOpenCredit is the earliest dated transaction that still carries a
// positive credit.
func (r *ReportRepository) OldestOpenCredit(ctx context.Context) (*model.OpenCredit, error) {
	var rows []openCreditRow
	err := r.Read(ctx).
		Table("transactions AS t").
		Select("t.id AS transaction_id, t.customer_id AS customer_id, c.name AS customer_name, t.credit AS credit, t.date AS date").
		Joins("JOIN customers AS c ON c.id = t.customer_id").
		Where("t.credit > 0").
		Order("t.date ASC").
		Order("t.id ASC").
		Limit(1).
		Scan(&rows).
		Error
	if err != nil {
		return nil, translate("oldest open credit", err, nil)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &model.OpenCredit{
		TransactionID: row.TransactionID,
		CustomerID:    row.CustomerID,
		CustomerName:  row.CustomerName,
		Credit:        row.Credit,
		Date:          time.UnixMilli(row.Date),
	}, nil
}

type frequencyRow struct {
	CustomerID   int64  `gorm:"column:customer_id"`
	CustomerName string `gorm:"column:customer_name"`
	Frequency    int64  `gorm:"column:frequency"`
}

// MostFrequentCustomer counts transactions per customer; ties go to the lowest id.
func (r *ReportRepository) MostFrequentCustomer(ctx context.Context) (*model.CustomerFrequency, error) {
	var rows []frequencyRow
	err := r.Read(ctx).
		Table("transactions AS t").
		Select("c.id AS customer_id, c.name AS customer_name, COUNT(*) AS frequency").
		Joins("JOIN customers AS c ON c.id = t.customer_id").
		Group("c.id, c.name").
		Order("frequency DESC").
		Order("c.id ASC").
		Limit(1).
		Scan(&rows).
		Error
	if err != nil {
		return nil, translate("most frequent customer", err, nil)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &model.CustomerFrequency{
		CustomerID:   rows[0].CustomerID,
		CustomerName: rows[0].CustomerName,
		Count:        rows[0].Frequency,
	}, nil
}

// ListTransactions joins transactions with their owners, newest first.
func (r *ReportRepository) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.TransactionView, error) {
	q := r.Read(ctx).
		Table("transactions AS t").
		Select("t.id, t.customer_id, t.item_name, t.item_price, t.amount_paid, t.credit, t.note, t.date, c.name AS customer_name").
		Joins("JOIN customers AS c ON c.id = t.customer_id")

	if f.CustomerID != nil {
		q = q.Where("t.customer_id = ?", *f.CustomerID)
	}
	if f.Since != nil {
		q = q.Where("t.date > ?", f.Since.UnixMilli())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var entities []*TransactionViewEntity
	if err := q.Order("t.date DESC").Order("t.id DESC").Scan(&entities).Error; err != nil {
		return nil, translate("list transactions", err, nil)
	}
	views, err := toTransactionViewModels(entities)
	if err != nil {
		return nil, translate("list transactions", err, nil)
	}
	if views == nil {
		views = []*model.TransactionView{}
	}
	return views, nil
}

type driftRow struct {
	CustomerID int64  `gorm:"column:customer_id"`
	Name       string `gorm:"column:name"`
	Cached     int64  `gorm:"column:cached"`
	Actual     int64  `gorm:"column:actual"`
}

// Audit lists every customer whose cached total_credit differs from the sum
// of its transaction credits. An empty result means the ledger is consistent.
func (r *ReportRepository) Audit(ctx context.Context) ([]*model.BalanceDrift, error) {
	var rows []driftRow
	err := r.Read(ctx).
		Table("customers AS c").
		Select("c.id AS customer_id, c.name AS name, c.total_credit AS cached, COALESCE(SUM(t.credit), 0) AS actual").
		Joins("LEFT JOIN transactions AS t ON t.customer_id = c.id").
		Group("c.id, c.name, c.total_credit").
		Having("c.total_credit <> COALESCE(SUM(t.credit), 0)").
		Order("c.id ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, translate("audit balances", err, nil)
	}
	drifts := make([]*model.BalanceDrift, len(rows))
	for i, row := range rows {
		drifts[i] = &model.BalanceDrift{
			CustomerID: row.CustomerID,
			Name:       row.Name,
			Cached:     row.Cached,
			Actual:     row.Actual,
		}
	}
	return drifts, nil
}
