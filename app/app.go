package app

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deemkeen/trunk/activitypub"
	"github.com/deemkeen/trunk/db"
	"github.com/deemkeen/trunk/exporter"
	"github.com/deemkeen/trunk/importer"
	"github.com/deemkeen/trunk/util"
	"github.com/deemkeen/trunk/web"
)

const httpTimeout = 30 * time.Second

// App represents the main application with all its servers and dependencies
type App struct {
	config     *util.AppConfig
	httpServer *http.Server
	done       chan os.Signal
}

// New creates a new App instance with the given configuration
func New(conf *util.AppConfig) (*App, error) {
	return &App{
		config: conf,
		done:   make(chan os.Signal, 1),
	}, nil
}

// Initialize sets up the database schema and wires the export and
// import pipelines into the HTTP router
func (a *App) Initialize() error {
	db.SetFileName(a.config.Conf.DbFile)
	database := db.GetDB()
	if err := database.CreateDB(); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	httpClient := activitypub.NewDefaultHTTPClient(httpTimeout)

	key, keyID := a.federationKey()
	apClient, err := activitypub.NewClient(httpClient, a.config, keyID, key)
	if err != nil {
		return fmt.Errorf("failed to create federation client: %w", err)
	}

	exp := exporter.NewAccountExporter(database, httpClient, apClient, a.config)
	imp := importer.NewAccountImporter(importer.NewDBWrapper(), a.config)

	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Conf.HttpPort),
		Handler: web.Router(a.config, exp, imp),
	}

	return nil
}

// federationKey loads the instance signing key, generating one on
// first start. Without a key, outbound federation requests go out
// unsigned.
func (a *App) federationKey() (*rsa.PrivateKey, string) {
	keyID := a.config.BaseURL() + "/actor#main-key"
	keyPath := util.ResolveFilePath("trunk_actor.pem")

	pemBytes, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		log.Printf("Generating instance signing key at %s", keyPath)
		pair := util.GeneratePemKeypair()
		if err := os.WriteFile(keyPath, []byte(pair.Private), 0o600); err != nil {
			log.Printf("Warning: could not persist signing key: %v", err)
			return nil, keyID
		}
		pemBytes = []byte(pair.Private)
	} else if err != nil {
		log.Printf("Warning: could not read signing key: %v", err)
		return nil, keyID
	}

	key, err := util.ParsePrivateKeyPem(string(pemBytes))
	if err != nil {
		log.Printf("Warning: signing key at %s is unusable: %v", keyPath, err)
		return nil, keyID
	}
	return key, keyID
}

// Start starts the HTTP server and blocks until a shutdown signal is
// received
func (a *App) Start() error {
	signal.Notify(a.done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("Starting HTTP server on %s:%d", a.config.Conf.Host, a.config.Conf.HttpPort)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-a.done
	log.Println("Shutdown signal received")

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server with a 30 second timeout
func (a *App) Shutdown() error {
	log.Println("Initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server stopped gracefully")
	return nil
}
