package dto

import openapi_types "github.com/oapi-codegen/runtime/types"

// VolumesResponse は日次・週次・月次ボリュームのレスポンスDTOです。
type VolumesResponse struct {
	Monthly       []MonthlyVolume    `json:"monthly"`
	Weekly        []WeeklyVolume     `json:"weekly"`
	Daily         []DailyVolume      `json:"daily"`
	StartDate     openapi_types.Date `json:"startDate"`
	EndDate       openapi_types.Date `json:"endDate"`
	SelectedMonth string             `json:"selectedMonth,omitempty"` // month 指定時のみ
}

// MonthlyVolume は1ヶ月分の取引額です。
type MonthlyVolume struct {
	Month   string  `json:"month"` // YYYY-MM
	BuyUSD  float64 `json:"buy_usd"`
	SellUSD float64 `json:"sell_usd"`
	Total   float64 `json:"total_usd"`
}

// WeeklyVolume は開始日起点の最大7日間の取引額です。
type WeeklyVolume struct {
	Week      string             `json:"week"` // "YYYY-MM-DD - YYYY-MM-DD"
	StartDate openapi_types.Date `json:"startDate"`
	EndDate   openapi_types.Date `json:"endDate"`
	Volume    float64            `json:"volume"`
	Chains    []ChainVolume      `json:"chains"`
}

// DailyVolume は1日分の取引額です。
type DailyVolume struct {
	Day     openapi_types.Date `json:"day"`
	BuyUSD  float64            `json:"buy_usd"`
	SellUSD float64            `json:"sell_usd"`
	Total   float64            `json:"total_usd"`
	Chains  []ChainVolume      `json:"chains"`
}

// ChainVolume はチェーン別の内訳です。
type ChainVolume struct {
	Chain string  `json:"chain"`
	Total float64 `json:"total_usd"`
}

// ErrorResponse はエラーレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
