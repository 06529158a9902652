package scheduler

import (
	"time"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval      time.Duration
	JobTimeout       time.Duration
	MaxInvoiceBatch  int
	ProjectionMonths int
}

func DefaultConfig() Config {
	return Config{
		RunInterval:      time.Hour,
		JobTimeout:       5 * time.Minute,
		MaxInvoiceBatch:  100,
		ProjectionMonths: 12,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.MaxInvoiceBatch <= 0 {
		c.MaxInvoiceBatch = defaults.MaxInvoiceBatch
	}
	if c.ProjectionMonths <= 0 {
		c.ProjectionMonths = defaults.ProjectionMonths
	}
	return c
}
