package model

import "time"

// DashboardStats is the dashboard projection. Pointer fields are nil when the
// ledger has nothing to report for them.
type DashboardStats struct {
	TotalOutstanding     int64              `json:"total_outstanding"`
	TopCustomer          *Customer          `json:"top_customer"`
	OldestOpenCredit     *OpenCredit        `json:"oldest_open_credit"`
	MostFrequentCustomer *CustomerFrequency `json:"most_frequent_customer"`
}

type OpenCredit struct {
	TransactionID int64     `json:"transaction_id"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Credit        int64     `json:"credit"`
	Date          time.Time `json:"date"`
}

type CustomerFrequency struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Count        int64  `json:"count"`
}

// BalanceDrift is a customer whose cached total disagrees with its transactions.
type BalanceDrift struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Cached     int64  `json:"cached"`
	Actual     int64  `json:"actual"`
}
