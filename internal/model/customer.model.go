package model

type Customer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	TotalCredit int64  `json:"total_credit"`
}

// CustomerFilter controls customer listings. Results are always ordered by
// total_credit descending, then id.
type CustomerFilter struct {
	Query  string // substring of the canonical name
	Limit  int
	Offset int
}
