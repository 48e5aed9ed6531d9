package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/secureauth/sentinel/internal/audit"
	"github.com/secureauth/sentinel/internal/config"
	"github.com/secureauth/sentinel/internal/handlers/api"
	"github.com/secureauth/sentinel/internal/middlewares"
	"github.com/secureauth/sentinel/internal/report"
	"github.com/secureauth/sentinel/model"
	"github.com/secureauth/sentinel/params"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	hoursFlag = &cli.IntFlag{
		Name:  "hours",
		Usage: "Summary time window in hours",
		Value: params.DefaultSummaryHours,
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of events to show",
		Value: params.DefaultActivityLimit,
	}
	callerFlag = &cli.StringFlag{
		Name:  "caller",
		Usage: "Collaborator name embedded in the minted token",
		Value: "viewer",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "sentinel - authentication audit log and intrusion detection engine"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				version := "sentinel"
				if gitCommit != "" {
					version += " " + gitCommit
				}
				if gitDate != "" {
					version += " (" + gitDate + ")"
				}
				fmt.Println(version)
				return nil
			},
		},
		{
			Name:   "summary",
			Usage:  "Show audit summary statistics",
			Flags:  []cli.Flag{hoursFlag},
			Action: runSummary,
		},
		{
			Name:   "alerts",
			Usage:  "Show active intrusion alerts",
			Action: runAlerts,
		},
		{
			Name:      "user",
			Usage:     "Show activity history for a subject",
			ArgsUsage: "<subject>",
			Flags:     []cli.Flag{limitFlag},
			Action:    runUserActivity,
		},
		{
			Name:      "resolve",
			Usage:     "Mark an intrusion alert as resolved",
			ArgsUsage: "<alert-id>",
			Action:    runResolve,
		},
		{
			Name:      "export",
			Usage:     "Export the full audit log to a JSON file",
			ArgsUsage: "[filename]",
			Action:    runExport,
		},
		{
			Name:   "token",
			Usage:  "Mint an API bearer token signed with the master key",
			Flags:  []cli.Flag{callerFlag},
			Action: runToken,
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(storageCfg config.StorageConfig) *gorm.DB {
	var dialector gorm.Dialector
	switch storageCfg.Driver {
	case "mysql":
		if _, err := sqldriver.ParseDSN(storageCfg.Dsn); err != nil {
			slog.Error("Invalid MySQL DSN", "error", err)
			os.Exit(1)
		}
		dialector = mysql.Open(storageCfg.Dsn)
	case "sqlite":
		dialector = sqlite.Open(storageCfg.Dsn)
	default:
		slog.Error("Unsupported storage driver", "driver", storageCfg.Driver)
		os.Exit(1)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   storageCfg.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if len(storageCfg.Replicas) > 0 && storageCfg.Driver == "mysql" {
		var replicas []gorm.Dialector
		for _, dsn := range storageCfg.Replicas {
			replicas = append(replicas, mysql.Open(dsn))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{Replicas: replicas})); err != nil {
			slog.Error("Failed to register read replicas", "error", err)
			os.Exit(1)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if storageCfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(storageCfg.MaxIdleConns)
		}
		if storageCfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(storageCfg.MaxOpenConns)
		}
		if storageCfg.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(time.Duration(storageCfg.ConnMaxIdleTime) * time.Second)
		}
		if storageCfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(time.Duration(storageCfg.ConnMaxLifetime) * time.Second)
		}
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	return db
}

func mustInitLocation(detectorCfg config.DetectorConfig) *time.Location {
	location, err := time.LoadLocation(detectorCfg.Timezone)
	if err != nil {
		slog.Error("Invalid detector timezone", "timezone", detectorCfg.Timezone, "error", err)
		os.Exit(1)
	}
	return location
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

type services struct {
	db            *gorm.DB
	auditService  *audit.AuditService
	reportService *report.Service
}

func initServices(cfg *config.Config) *services {
	db := mustInitDatabase(cfg.Storage)
	location := mustInitLocation(cfg.Detector)
	eventRepo := audit.NewEventRepository(db)
	alertRepo := audit.NewAlertRepository(db)
	rules := audit.DefaultRules(eventRepo, location)
	return &services{
		db:            db,
		auditService:  audit.NewAuditService(eventRepo, alertRepo, rules),
		reportService: report.NewService(eventRepo, alertRepo),
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.Bool(debugFlag.Name) {
		cfg.Debug = true
	}
	mustInitLogger(cfg.Debug)
	return cfg, nil
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svcs := initServices(cfg)

	var (
		auditHandler = api.NewAuditHandler(svcs.auditService, svcs.reportService)
		alertHandler = api.NewAlertHandler(svcs.auditService)
	)

	var limiterStorage fiber.Storage
	var redisStorage *redis.Storage
	if cfg.Redis.URL != "" {
		redisStorage = mustInitRedisStorage(cfg.Redis)
		limiterStorage = redisStorage
	} else {
		limiterStorage = memory.New()
	}

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	v1 := router.Group("/api/v1", middlewares.RequireToken(cfg.MasterKey))
	v1.Post("/events", limiter.New(limiter.Config{
		Max:        cfg.RateLimit.Max,
		Expiration: cfg.RateLimit.Window,
		Storage:    limiterStorage,
	}), auditHandler.PostEvent)
	v1.Get("/summary", auditHandler.GetSummary)
	v1.Get("/users/:subject/activity", auditHandler.GetUserActivity)
	v1.Get("/alerts", alertHandler.GetAlerts)
	v1.Post("/alerts/:id/resolve", alertHandler.PostResolveAlert)
	v1.Get("/export", auditHandler.GetExport)

	var redisConn goredis.UniversalClient
	if redisStorage != nil {
		redisConn = redisStorage.Conn()
	}
	go startHealthCheckServer(params.HealthCheckServerAddr, redisConn, svcs.db)

	slog.Info("Starting audit engine", "listenAddr", cfg.ListenAddr, "driver", cfg.Storage.Driver)
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
