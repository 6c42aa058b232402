package pinauth

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/drivers/sqlite"

	"github.com/oarkflow/pinauth/pkg/config"
	"github.com/oarkflow/pinauth/pkg/contracts"
	"github.com/oarkflow/pinauth/pkg/http/middlewares"
	"github.com/oarkflow/pinauth/pkg/http/routes"
	"github.com/oarkflow/pinauth/pkg/libs"
	"github.com/oarkflow/pinauth/pkg/objects"
	"github.com/oarkflow/pinauth/pkg/storage"
)

type Plugin struct {
	App              *fiber.App
	Prefix           string
	DB               *squealx.DB
	Vault            contracts.Storage
	SendNotification contracts.NotificationHandler
}

type Option func(*Plugin)

func WithApp(app *fiber.App) Option {
	return func(p *Plugin) { p.App = app }
}

func WithPrefix(prefix string) Option {
	return func(p *Plugin) { p.Prefix = prefix }
}

func WithDB(db *squealx.DB) Option {
	return func(p *Plugin) { p.DB = db }
}

// WithVault overrides the storage backend entirely; WithDB is ignored
// when a vault is provided.
func WithVault(vault contracts.Storage) Option {
	return func(p *Plugin) { p.Vault = vault }
}

func WithNotificationHandler(handler contracts.NotificationHandler) Option {
	return func(p *Plugin) { p.SendNotification = handler }
}

func NewPluginWithOptions(opts ...Option) *Plugin {
	plugin := &Plugin{Prefix: "/"}
	for _, opt := range opts {
		opt(plugin)
	}
	if plugin.Prefix == "" {
		plugin.Prefix = "/"
	}
	return plugin
}

// Register wires the gate into the host application. It can run with
// no configuration at all: missing config falls back to defaults and a
// missing database falls back to a local sqlite file.
func (p *Plugin) Register() {
	if objects.Config == nil {
		objects.Config = config.New("", false, nil)
		defaults := &config.Defaults{}
		defaults.Load()
	}
	cfg := libs.LoadConfig()
	vault := p.Vault
	if vault == nil {
		var db *squealx.DB
		if p.DB != nil {
			db = p.DB
		} else if cfg.DB != nil {
			db = cfg.DB
		} else {
			sqliteDB, err := sqlite.Open("vault.db", "sqlite")
			if err != nil {
				log.Fatalf("failed to open database: %v", err)
			}
			db = sqliteDB
		}
		dbVault, err := storage.NewDatabaseStorage(db)
		if err != nil {
			log.Fatalf("failed to initialize storage: %v", err)
		}
		vault = dbVault
	}
	manager := libs.NewManager(vault, cfg)
	if p.SendNotification != nil {
		manager.SendNotification = p.SendNotification
	}
	objects.Manager = manager
	if p.App != nil {
		routes.Setup(p.Prefix, p.App)
		protected := p.App.Group(p.Prefix, middlewares.Verify)
		routes.ProtectedRoutes(protected)
		routes.PINProtectedRoutes(p.App.Group(p.Prefix, middlewares.Verify, middlewares.RequirePIN))
	}
}

func (p *Plugin) Init() {
}

func (p *Plugin) Name() string {
	return "PINAuth"
}

func (p *Plugin) DependsOn() []string {
	return []string{"Database"}
}

func (p *Plugin) Close() error {
	return nil
}
