// internal/models/analytics.go
package models

import "github.com/shopspring/decimal"

// ClaimSummary is the headline count over every claim.
type ClaimSummary struct {
	TotalClaims   int             `json:"totalClaims"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Pending       int             `json:"pending"`
	FullyApproved int             `json:"fullyApproved"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// StatusCount carries the catalog name and color so charts need no second lookup.
type StatusCount struct {
	StatusID  StatusID `json:"statusId"`
	Name      string   `json:"name"`
	ColorCode string   `json:"colorCode"`
	Count     int      `json:"count"`
}

// ApprovalTime is the mean delay between a claim's submission and its decisions.
type ApprovalTime struct {
	ClaimID        string  `json:"claimId"`
	AverageMinutes float64 `json:"averageMinutes"`
	Average        string  `json:"average"`
}

type Spender struct {
	UserID string          `json:"userId"`
	Name   string          `json:"name"`
	Total  decimal.Decimal `json:"total"`
}
