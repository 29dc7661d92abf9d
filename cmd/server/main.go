package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fadilmartias/teambuilder/internal/config"
	"github.com/fadilmartias/teambuilder/internal/domain/fiber/handler"
	"github.com/fadilmartias/teambuilder/internal/interview"
	"github.com/fadilmartias/teambuilder/internal/logger"
	"github.com/fadilmartias/teambuilder/internal/middleware"
	"github.com/fadilmartias/teambuilder/internal/model"
	"github.com/fadilmartias/teambuilder/internal/repository"
	"github.com/fadilmartias/teambuilder/internal/service"
	"github.com/fadilmartias/teambuilder/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	logConfig := config.LoadLogConfig()

	zlog, err := logger.New(logConfig.JSON, logConfig.Debug)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zlog = zlog.With(zap.String("app", appConfig.Name), zap.String("env", appConfig.Env))

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env != "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB(zlog)

	oracleConfig := config.LoadOracleConfig()
	oracle, err := service.NewOracle(ctx, oracleConfig, zlog)
	if err != nil {
		zlog.Fatal("could not build oracle", zap.String("provider", oracleConfig.Provider), zap.Error(err))
	}

	machine := interview.NewStateMachine(
		interview.NewPromptGenerator(),
		interview.NewResponseParser(zlog),
		logger.NewZapEventSink(zlog),
		zlog,
	)

	interviewRepo := repository.NewInterviewRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	interviewUC := usecase.NewInterviewUsecase(interviewRepo, oracle, machine, zlog)
	projectUC := usecase.NewProjectUsecase(projectRepo, zlog)

	api := app.Group("/", middleware.JWTAuth(middleware.AuthConfig{
		Secret:         config.LoadAuthConfig().JWTSecret,
		AllowDevHeader: appConfig.Env != "production",
	}))
	handler.NewProjectHandler(projectUC).RegisterRoutes(api)
	// Leave headroom over the oracle timeout for the surrounding transaction.
	handler.NewInterviewHandler(interviewUC, oracleConfig.Timeout+15*time.Second).RegisterRoutes(api)

	zlog.Info("server running", zap.String("port", appConfig.Port), zap.String("oracle", oracleConfig.Provider))
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func ConnectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		zlog.Fatal("could not enable uuid-ossp", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.Project{}, &model.ProjectMember{}, &model.InterviewMessage{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}
