package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"catphotos"
	"catphotos/config"
	"catphotos/database"
	"catphotos/gateway"
	"catphotos/objectstore/local"
	s3store "catphotos/objectstore/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP server",
	Long: `Start a plain HTTP server running the same routing code as the
deployed function. With the local backends it needs no AWS account:
metadata goes to SQLite and photo objects to a directory on disk,
with signed URLs served back through this process.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8380, "HTTP server port")
	serveCmd.Flags().String("db-backend", "", "metadata backend: dynamo, sqlite (env: CATPHOTOS_DATABASE_BACKEND)")
	serveCmd.Flags().String("db-dsn", "", "sqlite data source name (env: CATPHOTOS_DATABASE_DSN)")
	serveCmd.Flags().String("storage-backend", "", "object store backend: s3, local (env: CATPHOTOS_STORAGE_BACKEND)")
	serveCmd.Flags().String("storage-path", "", "local object store directory (env: CATPHOTOS_STORAGE_PATH)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	configFiles, _ := cmd.Flags().GetStringSlice("config")
	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	repo, cleanup, err := database.Connect(ctx, database.Config{
		Backend: cfg.Database.Backend,
		Table:   cfg.Photos.Table,
		Region:  cfg.AWS.Region,
		DSN:     cfg.Database.DSN,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer cleanup()
	slog.Info("connected to metadata backend", "backend", cfg.Database.Backend)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	var store catphotos.ObjectStore
	var localStore *local.Store
	var signer *local.Signer

	switch cfg.Storage.Backend {
	case "s3":
		awsCfg, cfgErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if cfgErr != nil {
			return fmt.Errorf("load aws config: %w", cfgErr)
		}
		store = s3store.New(awss3.NewFromConfig(awsCfg), cfg.Photos.Bucket)
	case "local":
		if err = os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}

		root, rootErr := os.OpenRoot(cfg.Storage.Path)
		if rootErr != nil {
			return fmt.Errorf("open storage root: %w", rootErr)
		}
		defer func() { _ = root.Close() }()

		baseURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		signer = local.NewSigner(baseURL, []byte(cfg.Storage.SigningSecret))
		localStore = local.NewStore(root, signer)
		store = localStore
	default:
		return fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}

	service := catphotos.NewPhotoService(repo, store, catphotos.ServiceConfig{
		PresignTTL: cfg.Photos.PresignTTL(),
	})

	handler := gateway.NewHandler(&gateway.HandlerConfig{
		Auth:  catphotos.NewAuthenticator(cfg.Auth.AllowedIDs()),
		Pages: gateway.NewHTMLRenderer(),
	}, service)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if localStore != nil {
		mountLocalObjects(r, localStore, signer)
	}
	r.Handle("/*", gateway.AdaptHTTP(handler))

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// mountLocalObjects serves the endpoints the local store's signed URLs point
// at. Every request must carry a valid signature for its method and key.
func mountLocalObjects(r chi.Router, store *local.Store, signer *local.Signer) {
	r.Get("/objects/*", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "*")
		query := req.URL.Query()
		if err := signer.Verify(http.MethodGet, key, query.Get("expires"), query.Get("sig")); err != nil {
			slog.Debug("rejected object download", "key", key, "err", err)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		f, err := store.Get(req.Context(), key)
		if err != nil {
			if errors.Is(err, catphotos.ErrNotFound) {
				http.Error(w, "Not Found", http.StatusNotFound)
				return
			}
			slog.Error("failed to open object", "key", key, "err", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		http.ServeContent(w, req, path.Base(key), time.Time{}, f)
	})

	r.Put("/objects/*", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "*")
		query := req.URL.Query()
		if err := signer.Verify(http.MethodPut, key, query.Get("expires"), query.Get("sig")); err != nil {
			slog.Debug("rejected object upload", "key", key, "err", err)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		data, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		if err := store.Put(req.Context(), key, data, req.Header.Get("Content-Type")); err != nil {
			slog.Error("failed to store object", "key", key, "err", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
