package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"moodboard/core"
	"moodboard/export"
	"moodboard/fonts"
	exportsapi "moodboard/handlers/api/exports"
	fontsapi "moodboard/handlers/api/fonts"
	"moodboard/handlers/api/moodboards"
	"moodboard/handlers/api/share"
	"moodboard/handlers/api/uploads"
	"moodboard/handlers/auth"
	"moodboard/ingest"
	authMiddleware "moodboard/middleware"
	"moodboard/realtime"
	"moodboard/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store core.MoodboardStore, blobs core.BlobStore) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "Host", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	renderer := export.NewRenderer()
	ingestor := ingest.New(blobs)
	catalog := fonts.NewCatalog(os.Getenv("GOOGLE_FONTS_API_KEY"))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Route("/moodboards", func(r chi.Router) {
				r.Get("/", moodboards.HandleList(store))
				r.Post("/", moodboards.HandleCreate(store))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", moodboards.HandleGet(store))
					r.Put("/", moodboards.HandleUpdate(store))
					r.Delete("/", moodboards.HandleDelete(store))
					r.Get("/export/png", exportsapi.HandlePNG(store, renderer))
					r.Get("/export/pdf", exportsapi.HandlePDF(store, renderer))
				})
			})
			r.Post("/uploads", uploads.HandleUpload(ingestor))
		})

		r.Get("/fonts", fontsapi.HandleList(catalog))
	})

	// Public read-only boards.
	r.Get("/share/{id}", share.HandleGet(store))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", auth.HandleLogin)
		r.Get("/callback", auth.HandleCallback)
	})

	// Local blob stores serve their own files; S3 URLs are absolute.
	if reader, ok := blobs.(core.BlobReader); ok {
		r.Get("/files/{userID}/{filename}", uploads.HandleServe(reader))
	}

	return r
}

func waitForShutdown(rt *realtime.Server) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-signals

	logrus.Info("Shutting down")
	rt.Close()
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()

	store, err := stores.GetStore()
	if err != nil {
		logrus.Fatalf("Failed to initialize moodboard storage: %v", err)
	}
	blobs, err := stores.GetBlobStore(context.Background())
	if err != nil {
		logrus.Fatalf("Failed to initialize blob storage: %v", err)
	}

	r := setupRouter(store, blobs)

	rt, err := realtime.NewServer(store)
	if err != nil {
		logrus.Fatalf("Failed to start realtime server: %v", err)
	}
	r.Mount("/socket.io/", rt.Handler())

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(rt)
}
