package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coffeelink/apiclient"
	"coffeelink/config"
	"coffeelink/controllers"
	"coffeelink/logger"
	"coffeelink/middleware"
	"coffeelink/routes"
	"coffeelink/session"
	"coffeelink/storage"
	"coffeelink/utils"
	"coffeelink/views"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 15 * time.Second

var (
	addrFlag   string
	apiURLFlag string
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "CoffeeLink storefront",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront over HTTP",
	Long: `Serves the catalog, cart, login and administration pages in front of the
CoffeeLink backend API. Settings come from the environment (and .env); the flags
override them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if addrFlag != "" {
			cfg.Port = addrFlag
		}
		if apiURLFlag != "" {
			cfg.APIBaseURL = apiURLFlag
		}
		return serve(cmd.Context(), cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the storefront version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address, overrides PORT")
	serveCmd.Flags().StringVar(&apiURLFlag, "api-url", "", "backend API base URL, overrides API_BASE_URL")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	secret := cfg.Secret
	if secret == "" {
		if !cfg.IsDev() {
			return errors.New("STOREFRONT_SECRET is required")
		}
		secret = uuid.NewString()
		log.Warn("STOREFRONT_SECRET not set, client cookies will not survive a restart")
	}
	signer, err := utils.NewClientSigner(secret)
	if err != nil {
		return err
	}

	var store storage.Storage = storage.NewMemory()
	if cfg.MongoURI != "" {
		client, err := utils.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("disconnecting mongodb", zap.Error(err))
			}
		}()
		store = storage.NewMongo(client, cfg.MongoDatabase)
		log.Info("client storage on mongodb", zap.String("database", cfg.MongoDatabase))
	} else {
		log.Warn("MONGO_URI not set, sessions are kept in memory only")
	}

	api, err := apiclient.New(cfg.APIBaseURL, apiclient.WithTimeout(cfg.APITimeout))
	if err != nil {
		return err
	}
	renderer, err := views.New(log)
	if err != nil {
		return err
	}
	registry := session.NewRegistry(store, log)

	orders := controllers.NewOrderController(api, utils.NewEmailService(cfg.SendGridAPIKey, cfg.EmailSender), log)
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))
	routes.RegisterRoutes(router, routes.Controllers{
		Users:   controllers.NewUserController(api, renderer, log),
		Catalog: controllers.NewCatalogController(api, renderer, log, cfg.PageSize),
		Orders:  orders,
		Cart:    controllers.NewCartController(renderer),
		Admin:   controllers.NewAdminController(api, renderer, log),
	}, middleware.ClientMiddleware(registry, signer, cfg.CookieSecure, log), renderer.Placeholder())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("storefront listening", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(ctx, time.Minute, cfg.ClientIdleTTL)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown requested")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		orders.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("bye")
	return nil
}
