package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the operator-tunable billing settings. It is loaded
// from a billing.yml file and hot-reloaded on change.
type BillingConfig struct {
	InvoiceNumberPrefix string             `mapstructure:"invoiceNumberPrefix"`
	InvoiceNumberWidth  int                `mapstructure:"invoiceNumberWidth"`
	SchedulerEnabled    bool               `mapstructure:"schedulerEnabled"`
	SchedulerInterval   time.Duration      `mapstructure:"schedulerInterval"`
	ReportingCurrency   string             `mapstructure:"reportingCurrency"`
	FallbackRates       map[string]float64 `mapstructure:"fallbackRates"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		InvoiceNumberPrefix: "SOL",
		InvoiceNumberWidth:  6,
		SchedulerEnabled:    true,
		SchedulerInterval:   time.Hour,
		ReportingCurrency:   "EUR",
		FallbackRates: map[string]float64{
			"USD": 1.09,
			"GBP": 0.86,
			"NGN": 1600,
		},
	}
}

// BillingConfigHolder exposes the current BillingConfig and swaps it
// atomically when the backing file changes. Invalid updates are ignored.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/solara/config") // Volume-mounted config
	v.AddConfigPath("/etc/solara")            // System config
	v.AddConfigPath(".")                      // Current directory (dev mode)

	v.SetEnvPrefix("SOLARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.invoiceNumberPrefix", defaults.InvoiceNumberPrefix)
	v.SetDefault("billing.invoiceNumberWidth", defaults.InvoiceNumberWidth)
	v.SetDefault("billing.schedulerEnabled", defaults.SchedulerEnabled)
	v.SetDefault("billing.schedulerInterval", defaults.SchedulerInterval)
	v.SetDefault("billing.reportingCurrency", defaults.ReportingCurrency)
	v.SetDefault("billing.fallbackRates", defaults.FallbackRates)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if strings.TrimSpace(cfg.InvoiceNumberPrefix) == "" {
		return errors.New("billing.invoiceNumberPrefix cannot be empty")
	}
	if cfg.InvoiceNumberWidth < 1 || cfg.InvoiceNumberWidth > 12 {
		return errors.New("billing.invoiceNumberWidth must be between 1 and 12")
	}
	if cfg.SchedulerInterval < time.Minute {
		return errors.New("billing.schedulerInterval must be at least one minute")
	}
	if strings.TrimSpace(cfg.ReportingCurrency) == "" {
		return errors.New("billing.reportingCurrency cannot be empty")
	}
	for currency, rate := range cfg.FallbackRates {
		if rate <= 0 {
			return fmt.Errorf("billing.fallbackRates[%s] must be positive", currency)
		}
	}
	return nil
}
