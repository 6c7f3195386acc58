package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/Thomas-Okram/TapTell/internal/arrival"
	"github.com/Thomas-Okram/TapTell/internal/config"
	taptellgrpc "github.com/Thomas-Okram/TapTell/internal/grpc"
	internalhttp "github.com/Thomas-Okram/TapTell/internal/http"
	"github.com/Thomas-Okram/TapTell/internal/jobs"
	"github.com/Thomas-Okram/TapTell/internal/media"
	"github.com/Thomas-Okram/TapTell/internal/notify"
	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/repository"
	"github.com/Thomas-Okram/TapTell/internal/repository/memory"
	"github.com/Thomas-Okram/TapTell/internal/repository/postgres"
	"github.com/Thomas-Okram/TapTell/internal/telemetry"
	"github.com/Thomas-Okram/TapTell/internal/throttle"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{Tracing: cfg.OTelEnabled})
	if err != nil {
		log.Fatalf("telemetry init failed: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()
	logger := telemetry.Logger("server")

	var store repository.Store
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.New()
	default:
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("db migration failed: %v", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connection failed: %v", err)
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	}

	var limiter operations.LoginLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		limiter = throttle.New(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockout)
	}

	photos, err := media.New(mediaConfig(cfg))
	if err != nil {
		log.Fatalf("photo storage init failed: %v", err)
	}
	sender, err := notify.New(notifyConfig(cfg), &http.Client{Timeout: cfg.NotifyTimeout})
	if err != nil {
		log.Fatalf("whatsapp provider init failed: %v", err)
	}
	logger.Info("providers ready", "photo_provider", cfg.Photo.Provider, "whatsapp_provider", cfg.WhatsApp.Provider)

	coordinator := arrival.New(store, photos, sender, arrival.Options{
		UploadTimeout: cfg.PhotoUploadTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	})
	ops := operations.NewService(store, operations.Options{
		TokenSecret: cfg.TokenSecret,
		TokenTTL:    cfg.TokenTTL,
		Arrivals:    coordinator,
		Limiter:     limiter,
	})

	server := internalhttp.NewServer(cfg, store, ops, photos)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := taptellgrpc.NewHealth()
	jobs.NewHealthProbe(cfg, store, health).Start(ctx)

	var grpcServer *grpc.Server
	if cfg.ServiceAuthToken == "" {
		logger.Warn("SERVICE_AUTH_TOKEN not set; grpc health surface disabled")
	} else {
		grpcServer, err = taptellgrpc.NewServer(cfg.ServiceAuthToken, health)
		if err != nil {
			log.Fatalf("grpc init failed: %v", err)
		}
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Fatalf("grpc listen error: %v", err)
			}
			logger.Info("grpc listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server error: %v", err)
			}
		}()
	}

	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}
	health.Shutdown()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	coordinator.Wait()
	logger.Info("shutdown complete")
}

func mediaConfig(cfg config.Config) media.Config {
	p := cfg.Photo
	return media.Config{
		Provider: p.Provider,
		Cloudinary: media.CloudinaryConfig{
			CloudName: p.CloudinaryCloudName,
			APIKey:    p.CloudinaryAPIKey,
			APISecret: p.CloudinaryAPISecret,
		},
		S3: media.S3Config{
			Bucket:          p.S3Bucket,
			Region:          p.S3Region,
			AccessKeyID:     p.S3AccessKeyID,
			SecretAccessKey: p.S3SecretAccessKey,
			PublicBaseURL:   p.S3PublicBaseURL,
		},
	}
}

func notifyConfig(cfg config.Config) notify.Config {
	w := cfg.WhatsApp
	return notify.Config{
		Provider: w.Provider,
		Wappie: notify.WappieConfig{
			BaseURL:       w.WappieBaseURL,
			APIKey:        w.WappieAPIKey,
			AuthHeader:    w.WappieAuthHeader,
			AuthPrefix:    w.WappieAuthPrefix,
			TextPath:      w.WappieTextPath,
			ImagePath:     w.WappieImagePath,
			FieldTo:       w.WappieFieldTo,
			FieldText:     w.WappieFieldText,
			FieldImageURL: w.WappieFieldImage,
			FieldCaption:  w.WappieFieldCaption,
		},
		Meta: notify.MetaConfig{
			Token:         w.MetaToken,
			PhoneNumberID: w.MetaPhoneNumberID,
			APIVersion:    w.MetaAPIVersion,
		},
		Twilio: notify.TwilioConfig{
			AccountSID: w.TwilioAccountSID,
			AuthToken:  w.TwilioAuthToken,
			From:       w.TwilioFrom,
		},
	}
}
