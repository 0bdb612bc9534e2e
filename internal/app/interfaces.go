package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/orangeboy/storefront/config"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/i18n"
	"github.com/orangeboy/storefront/internal/translate"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access. DB returns nil when no relational
// backend is configured.
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
	Jobs() []JobStatus
	RunJobNow(name string) error
}

// CatalogProvider provides the product access layer
type CatalogProvider interface {
	Catalog() *catalog.Service
}

// TranslatorProvider provides the translation gateway and language table
type TranslatorProvider interface {
	Translator() *translate.Gateway
	Languages() *i18n.Registry
}

// EventsProvider provides the product change event bus
type EventsProvider interface {
	Events() EventBus.Bus
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	CatalogProvider
	TranslatorProvider
	EventsProvider

	// MigrateDB creates or updates the relational schema
	MigrateDB(track bool) error
	// CheckAdminCredentials validates a login against the configured admin account
	CheckAdminCredentials(username, password string) bool
	// IsAdmin reports whether username is the configured admin and admin login is enabled
	IsAdmin(username string) bool
}
