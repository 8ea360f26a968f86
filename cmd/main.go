package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/spacefindr/core/internal/auth"
	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/config"
	"github.com/spacefindr/core/internal/contract"
	"github.com/spacefindr/core/internal/db"
	"github.com/spacefindr/core/internal/grpcapi"
	"github.com/spacefindr/core/internal/httpapi"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/notify"
	"github.com/spacefindr/core/internal/payment"
	"github.com/spacefindr/core/internal/repository"
	"github.com/spacefindr/core/internal/service"
)

func main() {
	// 0. .env для локального запуска; в контейнере переменные уже заданы.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	// 1. Конфиг БД и приложения из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.Open(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Репозитории (реализации на GORM).
	spaceRepo := repository.NewGormSpaceRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	vacancyRepo := repository.NewGormVacancyRepository(gormDB)
	contractRepo := repository.NewGormContractRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)

	// 5. Внешние зависимости: блокировки, уведомления, хранилище договоров.
	var locker lock.Locker
	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr, Password: appCfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis ping %s: %v", appCfg.RedisAddr, err)
		}
		cancel()
		locker = lock.NewRedisLocker(rdb, "spacefindr:lock:", appCfg.LockTTL)
		log.Printf("locks: redis %s", appCfg.RedisAddr)
	} else {
		locker = lock.NewLocalLocker()
		log.Printf("locks: in-process (single instance only)")
	}

	var target notify.Notifier = notify.LogNotifier{}
	if len(appCfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(appCfg.KafkaBrokers, appCfg.KafkaTopic)
		defer kafkaNotifier.Close()
		target = kafkaNotifier
		log.Printf("notifications: kafka %v topic %s", appCfg.KafkaBrokers, appCfg.KafkaTopic)
	}
	dispatcher := notify.NewDispatcher(target, 256)
	defer dispatcher.Close()

	var documents contract.Store
	if appCfg.S3Bucket != "" {
		s3Store, err := contract.NewS3Store(ctx, appCfg.S3Region, appCfg.S3Bucket, appCfg.S3Endpoint)
		if err != nil {
			log.Fatalf("init s3 store: %v", err)
		}
		documents = s3Store
		log.Printf("contracts: s3 bucket %s", appCfg.S3Bucket)
	} else {
		documents = contract.NewMemoryStore()
		log.Printf("contracts: in-memory store")
	}

	// 6. Сервисы.
	clock := booking.SystemClock{}
	engine := booking.NewEngine(clock, appCfg.Location)
	identitySvc := service.NewIdentityService(userRepo)
	bookingSvc := service.NewBookingService(engine, spaceRepo, bookingRepo, eventRepo, locker, payment.SimulatedGateway{}, dispatcher)
	spaceSvc := service.NewSpaceService(spaceRepo)
	vacancySvc := service.NewVacancyService(vacancyRepo, spaceRepo, locker, clock, appCfg.VacancyReward)
	contractSvc := service.NewContractService(bookingRepo, spaceRepo, contractRepo, identitySvc, contract.NewRenderer(), documents, locker, clock)

	tokens := auth.NewTokenService(appCfg.JWTSecret, appCfg.JWTIssuer)

	// 7. gRPC-сервер.
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(tokens.UnaryInterceptor()))
	grpcapi.RegisterBookingServiceServer(grpcServer, grpcapi.NewBookingServer(bookingSvc, contractSvc))
	grpcapi.RegisterListingServiceServer(grpcServer, grpcapi.NewListingServer(spaceSvc, vacancySvc, identitySvc))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", appCfg.GRPCAddr, err)
	}
	go func() {
		log.Printf("core gRPC server listening on %s", appCfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	// 8. HTTP: публичный каталог, цены, календарь, наводки.
	handler := httpapi.New(bookingSvc, spaceSvc, vacancySvc, tokens)
	handler.DevTokens = appCfg.DevTokens
	if appCfg.DevTokens {
		log.Printf("WARNING: DEV_TOKENS enabled, POST /dev/token issues tokens without authentication")
	}
	httpServer := &http.Server{
		Addr:         appCfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("core HTTP server listening on %s", appCfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 9. Фоновое автозавершение аренд.
	if appCfg.SweepInterval > 0 {
		go bookingSvc.RunSweeper(ctx, appCfg.SweepInterval)
	}

	// 10. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	log.Println("shutting down...")
	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	grpcServer.GracefulStop()
}
