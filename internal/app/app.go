package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"runtime/debug"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/orangeboy/storefront/config"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/cms"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/fallback"
	"github.com/orangeboy/storefront/internal/i18n"
	"github.com/orangeboy/storefront/internal/storage"
	"github.com/orangeboy/storefront/internal/translate"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	bus       EventBus.Bus
	languages *i18n.Registry
	gateway   *translate.Gateway
	store     *fallback.Store
	catalog   *catalog.Service
	repo      *catalog.GormRepository
	adminHash []byte
	jobs      []*Job
}

// Ensure Application implements all interfaces
var (
	_ DBProvider         = (*Application)(nil)
	_ ConfigProvider     = (*Application)(nil)
	_ SchedulerProvider  = (*Application)(nil)
	_ CatalogProvider    = (*Application)(nil)
	_ TranslatorProvider = (*Application)(nil)
	_ EventsProvider     = (*Application)(nil)
	_ AppContext         = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Catalog() *catalog.Service {
	return a.catalog
}

func (a *Application) Translator() *translate.Gateway {
	return a.gateway
}

func (a *Application) Languages() *i18n.Registry {
	return a.languages
}

func (a *Application) Events() EventBus.Bus {
	return a.bus
}

// FallbackStore exposes the in-memory store, mainly so tests can reset it.
func (a *Application) FallbackStore() *fallback.Store {
	return a.store
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)

	// Relational backend is optional; without it the CMS or the fallback store serves products
	if cfg.HasDatabase() {
		db, err := getDatabase(cfg.Database, cfg.GetDataDir())
		if err != nil {
			zap.S().Errorf("database connection failed, product data will not be durable: %v", err)
		} else {
			a.gormDB = db
			zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
			if err := a.MigrateDB(false); err != nil {
				zap.S().Errorf("database migration failed: %v", err)
			}
		}
	}

	if err := a.InitServices(); err != nil {
		zap.S().Errorf("service initialization failed: %v", err)
	}

	if cfg.System.SeedDemo {
		go func() {
			time.Sleep(time.Second)
			a.checkProducts()
		}()
	}

	a.initJob()
}

// initLogger builds the global zap logger, rotating files through lumberjack
// when file output is enabled.
func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if cfg.System.Debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// InitServices builds the language table, translation gateway, fallback
// store, durable backend and product access layer from the configuration.
func (a *Application) InitServices() error {
	cfg := a.appConfig

	a.languages = i18n.Default()

	cache, err := translate.NewCache(cfg.Translate.CacheSize)
	if err != nil {
		return errors.Wrap(err, "translation cache")
	}
	var provider translate.Provider
	if strings.TrimSpace(cfg.Translate.ApiKey) != "" {
		provider = translate.NewDeepLClient(cfg.Translate.Endpoint, cfg.Translate.ApiKey, cfg.TranslateTimeout())
	} else {
		zap.L().Info("translation provider key missing, text is served untranslated")
	}
	a.gateway = translate.NewGateway(a.languages, provider, cache)

	if a.store == nil {
		a.store = fallback.New()
	}

	backend, err := a.durableBackend()
	if err != nil {
		return err
	}
	timeout := cfg.CmsTimeout()
	if backend == nil {
		zap.L().Warn("no durable product backend configured, products are kept in memory only")
	} else if backend.Name() == "database" {
		// uploads to the bucket run inside the durable call
		timeout = cfg.StorageTimeout()
	}

	a.jobs = a.defineJobs()

	a.bus = EventBus.New()
	a.subscribeAudit()

	a.catalog = catalog.NewService(backend, a.store, a.gateway, timeout)
	a.catalog.SetEvents(a.bus)

	if err := ensureSessionSecret(cfg); err != nil {
		return err
	}

	if cfg.Web.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Web.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "hash admin password")
		}
		a.adminHash = hash
	} else {
		a.adminHash = nil
		zap.L().Warn("admin password not configured, admin login is disabled")
	}
	return nil
}

// durableBackend selects the CMS when configured, then the relational store.
func (a *Application) durableBackend() (catalog.Backend, error) {
	cfg := a.appConfig
	if cfg.HasCms() {
		zap.L().Info("using CMS product backend", zap.String("url", cfg.Cms.URL))
		return cms.NewStrapiClient(cfg.Cms.URL, cfg.Cms.Token, nil), nil
	}
	if a.gormDB == nil {
		return nil, nil
	}
	var uploader catalog.ImageUploader
	if cfg.HasStorage() {
		bucket, err := storage.NewBucket(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket, nil)
		if err != nil {
			return nil, errors.Wrap(err, "storage bucket")
		}
		uploader = bucket
	}
	a.repo = catalog.NewGormRepository(a.gormDB, uploader)
	return a.repo, nil
}

// ensureSessionSecret replaces an empty or shipped placeholder secret with a
// random one. Sessions and tokens then last only for the process lifetime.
func ensureSessionSecret(cfg *config.AppConfig) error {
	secret := strings.TrimSpace(cfg.Web.Secret)
	if secret != "" && secret != config.DefaultSessionSecret {
		return nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return errors.Wrap(err, "generate session secret")
	}
	cfg.Web.Secret = hex.EncodeToString(buf)
	zap.L().Warn("web secret not configured, using a random per-process secret")
	return nil
}

// IsAdmin reports whether username is the configured admin while admin
// login is enabled.
func (a *Application) IsAdmin(username string) bool {
	if len(a.adminHash) == 0 || username == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(username), []byte(a.appConfig.Web.AdminUsername)) == 1
}

// CheckAdminCredentials compares against the configured admin account.
func (a *Application) CheckAdminCredentials(username, password string) bool {
	if !a.IsAdmin(username) {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.adminHash, []byte(password)) == nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	if a.gormDB == nil {
		return nil
	}
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		return a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	if a.gormDB == nil {
		return
	}
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
