package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-camp/api/config"
	"project-camp/api/handlers"
	"project-camp/api/logging"
	"project-camp/api/middleware"
	"project-camp/api/repositories"
	"project-camp/api/services"
	"project-camp/api/utils"

	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	port := pflag.String("port", "", "listen port, overrides PORT")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_LOAD_FAILED, Description: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}

	logging.InitLogger(logging.Options{SystemName: "project-camp-api", File: cfg.LogFile, Level: cfg.LogLevel})

	store, ping, closeStore := openStore(cfg)
	defer closeStore()

	blackList, err := services.LoadBlackList(cfg.BlacklistFile)
	if err != nil {
		logging.Logger.Fatalf("Event ID: BLACKLIST_LOAD_FAILED, Description: %v", err)
	}
	logging.Logger.Infof("Event ID: BLACKLIST_LOADED, Description: %d blacklisted passwords", len(blackList))

	var mailer utils.Mailer = utils.LogMailer{}
	if cfg.Mail.Host != "" {
		mailer = utils.NewSMTPMailer(cfg.Mail)
	}

	tokens, err := services.NewJWTService(cfg.Tokens)
	if err != nil {
		logging.Logger.Fatalf("Event ID: TOKEN_SERVICE_FAILED, Description: %v", err)
	}
	uploads := &utils.UploadStore{Dir: cfg.UploadDir, BaseURL: cfg.ServerURL}

	authService := services.NewAuthService(store.Users, tokens, mailer, services.NewPasswordPolicy(blackList), uploads, cfg.ServerURL, cfg.ClientURL)
	router := handlers.NewRouter(handlers.Handlers{
		Health: &handlers.HealthHandler{Ping: ping},
		Auth: handlers.NewAuthHandler(authService, handlers.CookieOptions{
			Secure:        cfg.CookieSecure,
			AccessMaxAge:  cfg.Tokens.AccessExpiry,
			RefreshMaxAge: cfg.Tokens.RefreshExpiry,
		}),
		Projects: handlers.NewProjectHandler(services.NewProjectService(store, uploads)),
		Tasks:    handlers.NewTaskHandler(services.NewTaskService(store, uploads)),
		Notes:    handlers.NewNoteHandler(services.NewNoteService(store)),
	}, middleware.NewAuthenticator(tokens, store.Users), handlers.RouterOptions{
		CORSOrigin:   cfg.CORSOrigin,
		UploadDir:    cfg.UploadDir,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: Server is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FAILED, Description: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
	logging.Logger.Info("Event ID: SERVER_STOPPED, Description: Server stopped")
}

// openStore connects the configured backing store and returns its health
// check and cleanup.
func openStore(cfg *config.Config) (*repositories.Store, func(context.Context) error, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		logging.Logger.Warn("Event ID: MEMORY_STORE, Description: Using the in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(), nil, func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECT_FAILED, Description: Database connection failed: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Connected to MongoDB database %s", cfg.MongoDBName)

	db := client.Database(cfg.MongoDBName)
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}

	ping := func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}
	return repositories.NewMongoStore(db), ping, disconnect
}
