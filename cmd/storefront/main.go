package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/forresttindall/paradoxlabs/migrations"
	catalogservice "github.com/forresttindall/paradoxlabs/pkg/catalog/domain/service"
	catalogmysql "github.com/forresttindall/paradoxlabs/pkg/catalog/infra/mysql"
	checkoutservice "github.com/forresttindall/paradoxlabs/pkg/checkout/domain/service"
	"github.com/forresttindall/paradoxlabs/pkg/common/config"
	"github.com/forresttindall/paradoxlabs/pkg/common/infra"
	notifmodel "github.com/forresttindall/paradoxlabs/pkg/notification/domain/model"
	notifservice "github.com/forresttindall/paradoxlabs/pkg/notification/domain/service"
	"github.com/forresttindall/paradoxlabs/pkg/notification/infra/smtp"
	orderservice "github.com/forresttindall/paradoxlabs/pkg/order/domain/service"
	"github.com/forresttindall/paradoxlabs/pkg/order/infra/stripegw"
	"github.com/forresttindall/paradoxlabs/transport"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "Paradox Labs storefront backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "apply catalog schema migrations",
				Action: runMigrate,
			},
			{
				Name:   "test-email",
				Usage:  "verify the SMTP configuration and send a test message",
				Action: runTestEmail,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func runServe(_ *cli.Context) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return errors.Wrap(err, "load server config")
	}
	mailCfg, err := config.LoadMail()
	if err != nil {
		return errors.Wrap(err, "load mail config")
	}
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return errors.Wrap(err, "load database config")
	}

	setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("mysql", dbCfg.DSN)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer db.Close()

	dispatcher := infra.NewLogDispatcher()
	gateway := stripegw.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	sender := smtp.New(smtp.Config{
		Host: mailCfg.SMTPHost,
		Port: mailCfg.SMTPPort,
		User: mailCfg.SMTPUser,
		Pass: mailCfg.SMTPPass,
		From: mailCfg.FromEmail,
	})

	notifier := notifservice.NewNotificationService(sender, dispatcher)
	fulfillment := orderservice.NewFulfillmentService(gateway, notifier, dispatcher)
	checkout := checkoutservice.NewCheckoutService(gateway)
	catalog := catalogservice.NewProductService(catalogmysql.NewProductRepository(db), dispatcher)

	router := transport.Router(transport.Deps{
		Fulfillment: fulfillment,
		Checkout:    checkout,
		Catalog:     catalog,
		Verifier:    gateway,
		AdminAPIKey: cfg.AdminAPIKey,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMigrate(_ *cli.Context) error {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return errors.Wrap(err, "load database config")
	}

	setupLogger("info")

	db, err := sqlx.Connect("mysql", withMultiStatements(dbCfg.DSN))
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer db.Close()

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return errors.Wrap(err, "open migration source")
	}
	driver, err := migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	if err != nil {
		return errors.Wrap(err, "init migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "mysql", driver)
	if err != nil {
		return errors.Wrap(err, "init migrator")
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("database schema already up to date")
			return nil
		}
		return errors.Wrap(err, "apply migrations")
	}

	log.Info("migrations applied")
	return nil
}

// runTestEmail mirrors the manual SMTP check the ops runbook describes:
// probe the relay, send a message to yourself, and explain common failures.
func runTestEmail(_ *cli.Context) error {
	mailCfg, err := config.LoadMail()
	if err != nil {
		return errors.Wrap(err, "load mail config")
	}

	setupLogger("debug")
	log.WithFields(log.Fields{
		"host": mailCfg.SMTPHost,
		"port": mailCfg.SMTPPort,
		"user": mailCfg.SMTPUser != "",
		"from": mailCfg.FromEmail,
	}).Info("testing email configuration")

	sender := smtp.New(smtp.Config{
		Host: mailCfg.SMTPHost,
		Port: mailCfg.SMTPPort,
		User: mailCfg.SMTPUser,
		Pass: mailCfg.SMTPPass,
		From: mailCfg.FromEmail,
	})

	if err := sender.Verify(); err != nil {
		explainMailFailure(err)
		return errors.Wrap(err, "smtp connection check failed")
	}
	log.Info("smtp connection ok")

	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Email System Test</h2>
  <p>This is a test email to verify the shipping notification system is working correctly.</p>
  <p><strong>Test Time:</strong> %s</p>
  <p>If you receive this email, your SMTP configuration is working properly!</p>
</div>`, time.Now().UTC().Format(time.RFC3339))

	if err := sender.Send(mailCfg.SMTPUser, "Test Email - Shipping Notification System", body); err != nil {
		explainMailFailure(err)
		return errors.Wrap(err, "send test email")
	}

	log.Info("test email sent")
	return nil
}

func explainMailFailure(err error) {
	switch {
	case errors.Is(err, notifmodel.ErrMailAuth):
		log.Error("authentication failed: for Gmail, enable 2FA and use an app password (https://myaccount.google.com/apppasswords) as SMTP_PASS")
	case errors.Is(err, notifmodel.ErrMailConnection):
		log.Error("connection failed: check SMTP_HOST and SMTP_PORT, your network connection and firewall settings")
	}
}

func setupLogger(level string) {
	log.SetFormatter(&log.JSONFormatter{})

	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// withMultiStatements enables multi-statement execution, which the migration
// driver needs.
func withMultiStatements(dsn string) string {
	if strings.Contains(dsn, "multiStatements=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "multiStatements=true"
}
