package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gookit/color"

	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"
	"github.com/oarkflow/squealx/drivers/sqlite"

	"github.com/oarkflow/pinauth"
	"github.com/oarkflow/pinauth/pkg/config"
	"github.com/oarkflow/pinauth/pkg/libs"
	"github.com/oarkflow/pinauth/pkg/objects"
)

func main() {
	objects.Config = config.New(".env", true, nil)
	defaults := &config.Defaults{}
	defaults.Load()

	app := fiber.New(fiber.Config{
		AppName: objects.Config.GetString("app.name", "PINAuth"),
	})

	db, err := openDatabase()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	plugin := pinauth.NewPluginWithOptions(
		pinauth.WithPrefix("/"),
		pinauth.WithApp(app),
		pinauth.WithDB(db),
		pinauth.WithNotificationHandler(libs.NotificationHandler{}),
	)
	plugin.Register()

	addr := fmt.Sprintf(":%d", objects.Config.GetInt("app.port", 3000))
	color.Green.Println("PIN auth server listening on " + addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

func openDatabase() (*squealx.DB, error) {
	driver := objects.Config.GetString("pin.db_driver", "sqlite")
	switch driver {
	case "postgres", "mysql":
		dbConfig := squealx.Config{
			Driver:   driver,
			Host:     objects.Config.GetString("pin.db_host", "localhost"),
			Port:     objects.Config.GetInt("pin.db_port", 5432),
			Username: objects.Config.GetString("pin.db_user", "postgres"),
			Password: objects.Config.GetString("pin.db_password", "postgres"),
			Database: objects.Config.GetString("pin.db_name", "pinauth"),
		}
		db, _, err := connection.FromConfig(dbConfig)
		return db, err
	default:
		return sqlite.Open(objects.Config.GetString("pin.db_file", "vault.db"), "sqlite")
	}
}
