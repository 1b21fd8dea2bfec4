package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/config"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	appHTTP "github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/attendance-normalizer-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/attendance-normalizer-go/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/file"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/normalize"
)

func main() {
	issueToken := flag.String("issue-token", "", "print an access token for the given role (owner, manager, employee) and exit")
	tokenCompany := flag.String("token-company", "", "restrict the issued token to one company")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	if *issueToken != "" {
		role := auth.Role(*issueToken)
		if !role.IsValid() {
			log.Fatalf("unknown role %q", *issueToken)
		}
		token, expiresAt, err := JWTService.GenerateAccessToken("cli", *tokenCompany, role)
		if err != nil {
			log.Fatal("Failed to issue token:", err)
		}
		fmt.Printf("%s\n# expires %s\n", token, time.Unix(expiresAt, 0).Format(time.RFC3339))
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	if *migrate {
		applied, err := db.Migrate(context.Background(), cfg.Database.MigrationsDir)
		if err != nil {
			log.Fatal("Failed to apply migrations:", err)
		}
		slog.Info("migrations applied", "files", applied)
	}

	importJobRepo := postgresql.NewImportJobRepository(db)
	var directoryRepo directory.Repository = postgresql.NewDirectoryRepository(db)

	if cfg.Redis.Addr != "" {
		redisClient, err := redisRepo.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis:", err)
		}
		defer redisClient.Close()
		directoryRepo = redisRepo.NewDirectoryCache(redisClient, directoryRepo, cfg.Redis.TTL)
		slog.Info("Directory snapshot cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage:", err)
	}
	fileService := file.NewFileService(fileStorage)

	registry, err := normalize.LoadRegistry(cfg.Import.FormatsFile)
	if err != nil {
		log.Fatal("Failed to load format registry:", err)
	}

	importService := attendanceService.NewImportService(importJobRepo, directoryRepo, registry, fileService)
	hub := sse.NewHub()
	importHandler := appHTTP.NewAttendanceImportHandler(importService, hub, cfg.Import.DefaultCompany)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.App.AllowedOrigins,
		Artifacts:      fileStorage,
	}, JWTService, importHandler, appHTTP.NewSessionHandler(JWTService))

	scheduler := cron.NewScheduler()
	cron.NewImportMonitor(importJobRepo, cfg.Import.MaxWait).WithHub(hub).RegisterJobs(scheduler, cfg.Import.PollInterval)
	scheduler.Start()
	defer scheduler.Stop()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Println("Server error:", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Server shutdown error:", err)
	}
}
