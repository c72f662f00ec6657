// internal/models/asset.go
package models

// Asset is a service contract under renewal management.
type Asset struct {
	AssetID         string  `json:"assetId"`
	Customer        string  `json:"customer"`
	CustomerType    string  `json:"customerType"`
	Product         string  `json:"product"`
	ContractValue   float64 `json:"contractValue"`
	ContractStart   string  `json:"contractStart"`
	ContractEnd     string  `json:"contractEnd"`
	DaysToExpiry    int     `json:"daysToExpiry"`
	UsagePct        float64 `json:"usagePct"`
	UsageDeclinePct float64 `json:"usageDeclinePct"`
	AssetAgeYears   float64 `json:"assetAgeYears"`
	LastDiscountPct float64 `json:"lastDiscountPct"`
	Licensing       string  `json:"licensing"`
}

// Customer types
const (
	CustomerTypeEnterprise = "Enterprise"
	CustomerTypeSMB        = "SMB"
)
