package repository

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/baki-ledger/internal/model"
)

// TransactionEntity mirrors the persisted row. item_price is a TEXT column in
// the on-disk schema, so it is carried as a string here.
type TransactionEntity struct {
	ID         int64   `db:"id"          gorm:"primaryKey;column:id"`
	CustomerID int64   `db:"customer_id" gorm:"column:customer_id;not null;index"`
	ItemName   string  `db:"item_name"   gorm:"column:item_name;not null"`
	ItemPrice  string  `db:"item_price"  gorm:"column:item_price;not null"`
	AmountPaid int64   `db:"amount_paid" gorm:"column:amount_paid;not null"`
	Credit     int64   `db:"credit"      gorm:"column:credit;not null"`
	Note       *string `db:"note"        gorm:"column:note"`
	Date       int64   `db:"date"        gorm:"column:date;not null;index"` // epoch milliseconds
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		ItemName:   m.ItemName,
		ItemPrice:  strconv.FormatInt(m.ItemPrice, 10),
		AmountPaid: m.AmountPaid,
		Credit:     m.Credit,
		Note:       m.Note,
		Date:       m.Date.UnixMilli(),
	}
}

func toTransactionModel(e *TransactionEntity) (*model.Transaction, error) {
	if e == nil {
		return nil, nil
	}
	price, err := strconv.ParseInt(e.ItemPrice, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has malformed item_price %q: %w", e.ID, e.ItemPrice, err)
	}
	return &model.Transaction{
		ID:         e.ID,
		CustomerID: e.CustomerID,
		ItemName:   e.ItemName,
		ItemPrice:  price,
		AmountPaid: e.AmountPaid,
		Credit:     e.Credit,
		Note:       e.Note,
		Date:       time.UnixMilli(e.Date),
	}, nil
}

// TransactionViewEntity is one row of the transactions/customers join.
type TransactionViewEntity struct {
	TransactionEntity
	CustomerName string `db:"customer_name" gorm:"column:customer_name"`
}

func toTransactionViewModels(entities []*TransactionViewEntity) ([]*model.TransactionView, error) {
	if entities == nil {
		return nil, nil
	}
	views := make([]*model.TransactionView, len(entities))
	for i, e := range entities {
		txn, err := toTransactionModel(&e.TransactionEntity)
		if err != nil {
			return nil, err
		}
		views[i] = &model.TransactionView{
			Transaction:         *txn,
			CustomerName:        e.CustomerName,
			CustomerDisplayName: model.DisplayName(e.CustomerName),
		}
	}
	return views, nil
}
