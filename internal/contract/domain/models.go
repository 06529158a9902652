package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	"gorm.io/datatypes"
)

type ContractStatus string

const (
	StatusDraft      ContractStatus = "DRAFT"
	StatusActive     ContractStatus = "ACTIVE"
	StatusTerminated ContractStatus = "TERMINATED"
)

// Contract is the aggregate root holding a customer's pricing configuration.
// TotalMW and SiteCount are written by the asset-monitoring sync (or a manual
// capacity update) and read, never derived, at billing time.
type Contract struct {
	ID                  snowflake.ID                         `json:"id,string" gorm:"primaryKey"`
	CustomerName        string                               `json:"customer_name" gorm:"size:255"`
	Status              ContractStatus                       `json:"status" gorm:"size:16;index"`
	PackageCode         string                               `json:"package_code" gorm:"size:64"`
	TotalMW             float64                              `json:"total_mw"`
	SiteCount           int                                  `json:"site_count"`
	Frequency           pricingdomain.BillingFrequency       `json:"frequency" gorm:"size:16"`
	SiteChargeFrequency pricingdomain.SiteChargeFrequency    `json:"site_charge_frequency" gorm:"size:16"`
	MinimumAnnualValue  float64                              `json:"minimum_annual_value"`
	Currency            string                               `json:"currency" gorm:"size:3"`
	StartDate           time.Time                            `json:"start_date"`
	NextInvoiceAt       *time.Time                           `json:"next_invoice_at,omitempty" gorm:"index"`
	Modules             []ContractModule                     `json:"modules" gorm:"foreignKey:ContractID"`
	Addons              []ContractAddon                      `json:"addons" gorm:"foreignKey:ContractID"`
	CreatedAt           time.Time                            `json:"created_at"`
	UpdatedAt           time.Time                            `json:"updated_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractModule is one selected module. TrialUntil, when set, suppresses the
// module's line until the date passes.
type ContractModule struct {
	ID          snowflake.ID `json:"id,string" gorm:"primaryKey"`
	ContractID  snowflake.ID `json:"contract_id,string" gorm:"index"`
	ModuleCode  string       `json:"module_code" gorm:"size:64"`
	CustomPrice *float64     `json:"custom_price,omitempty"`
	TrialUntil  *time.Time   `json:"trial_until,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (ContractModule) TableName() string {
	return "contract_modules"
}

// ContractAddon is one selected addon with its per-contract overrides.
// CustomTiers, when present, replaces the catalog tier table wholesale.
type ContractAddon struct {
	ID          snowflake.ID             `json:"id,string" gorm:"primaryKey"`
	ContractID  snowflake.ID             `json:"contract_id,string" gorm:"index"`
	AddonCode   string                   `json:"addon_code" gorm:"size:64"`
	Quantity    float64                  `json:"quantity"`
	Complexity  catalogdomain.Complexity `json:"complexity,omitempty" gorm:"size:16"`
	CustomPrice *float64                 `json:"custom_price,omitempty"`
	CustomTiers datatypes.JSON           `json:"custom_tiers,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

func (ContractAddon) TableName() string {
	return "contract_addons"
}

type Service interface {
	Create(ctx context.Context, contract *Contract) (*Contract, error)
	Update(ctx context.Context, contract *Contract) (*Contract, error)
	Get(ctx context.Context, id snowflake.ID) (*Contract, error)
	List(ctx context.Context) ([]Contract, error)
	UpdateCapacity(ctx context.Context, id snowflake.ID, totalMW float64, siteCount int) (*Contract, error)
	ListDue(ctx context.Context, before time.Time) ([]Contract, error)
	ScheduleNext(ctx context.Context, id snowflake.ID, next *time.Time) error
	// BuildCalculationRequest snapshots the contract into the composer's
	// input, resolving trial windows against the given instant.
	BuildCalculationRequest(contract *Contract, at time.Time) (pricingdomain.CalculationRequest, error)
}
