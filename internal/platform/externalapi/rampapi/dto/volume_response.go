// Package dto defines data transfer objects for the ramp API responses.
package dto

import "encoding/json"

// DailyResponse represents the JSON response from the /daily endpoint.
// Amounts arrive either as JSON numbers or as decimal strings.
type DailyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Rows    []struct {
		Day   string      `json:"day"`
		Chain string      `json:"chain"`
		Buy   json.Number `json:"buy_usd"`
		Sell  json.Number `json:"sell_usd"`
		Total json.Number `json:"total_usd"`
	} `json:"rows"`
}

// MonthlyResponse represents the JSON response from the /monthly endpoint.
type MonthlyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Rows    []struct {
		Month string      `json:"month"`
		Buy   json.Number `json:"buy_usd"`
		Sell  json.Number `json:"sell_usd"`
		Total json.Number `json:"total_usd"`
	} `json:"rows"`
}
