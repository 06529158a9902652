package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// BaseCurrency is the currency every contract amount is normalized into for
// consolidated reporting.
const BaseCurrency = "EUR"

// RateSource records where the rate used for a conversion came from.
type RateSource string

const (
	// SourceIdentity marks amounts already denominated in the base currency.
	SourceIdentity RateSource = "IDENTITY"
	// SourceLive marks conversions using a stored exchange rate.
	SourceLive RateSource = "LIVE"
	// SourceFallback marks conversions using the static fallback table.
	SourceFallback RateSource = "FALLBACK"
	// SourceNone marks pass-through amounts with no known rate.
	SourceNone RateSource = "NONE"
)

// ExchangeRate stores how many units of Currency one EUR buys.
type ExchangeRate struct {
	ID         snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Currency   string       `json:"currency" gorm:"uniqueIndex;size:3"`
	RatePerEUR float64      `json:"rate_per_eur"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// Conversion is the outcome of a currency normalization.
type Conversion struct {
	Amount float64
	Rate   float64
	Source RateSource
}

type Service interface {
	// ToEUR converts amount from the given currency into EUR. Unknown
	// currencies pass through unconverted with Source NONE.
	ToEUR(ctx context.Context, amount float64, currency string) Conversion
	// FromEUR converts an EUR amount into the given currency.
	FromEUR(ctx context.Context, amount float64, currency string) Conversion
	UpsertRate(ctx context.Context, currency string, ratePerEUR float64) (*ExchangeRate, error)
	ListRates(ctx context.Context) ([]ExchangeRate, error)
}
