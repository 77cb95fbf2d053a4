package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/realtime"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description University timetable scheduling engine
// @BasePath /api/v1
// @schemes http

type catalogRepos struct {
	courses    *repository.CourseRepository
	professors *repository.ProfessorRepository
	rooms      *repository.RoomRepository
	slots      *repository.TimeSlotRepository
	entries    *repository.ScheduleEntryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	index := scheduling.NewScheduleIndex()

	var (
		catalogSvc    *service.CatalogService
		schedulingSvc *service.SchedulingService
		timetableSvc  *service.TimetableService
		syncer        *service.EntrySyncService
	)

	cacheSvc, closeCache := newCacheService(ctx, cfg, metricsSvc, logr)
	defer closeCache()
	syncCfg := service.EntrySyncConfig{
		Workers:    cfg.Timetable.PersistWorkers,
		BufferSize: cfg.Timetable.PersistBuffer,
		MaxRetries: cfg.Timetable.PersistRetries,
	}

	switch cfg.Catalog.Driver {
	case config.CatalogDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db, logr); err != nil {
				return err
			}
		}
		repos := catalogRepos{
			courses:    repository.NewCourseRepository(db),
			professors: repository.NewProfessorRepository(db),
			rooms:      repository.NewRoomRepository(db),
			slots:      repository.NewTimeSlotRepository(db),
			entries:    repository.NewScheduleEntryRepository(db),
		}
		catalogSvc = service.NewCatalogService(repos.courses, repos.professors, repos.rooms, repos.slots, cfg.Timetable.AutocompleteLimit, validate, logr)
		schedulingSvc = service.NewSchedulingService(index, repos.courses, repos.professors, repos.slots, repos.rooms, metricsSvc, validate, logr)
		timetableSvc = service.NewTimetableService(index, repos.slots, repos.rooms, catalogSvc, cacheSvc, metricsSvc, cfg.Cache.TTL, logr)
		syncer = service.NewEntrySyncService(repos.entries, index, metricsSvc, syncCfg, logr)
	default:
		courses := repository.NewMemoryCourseRepository()
		professors := repository.NewMemoryProfessorRepository()
		rooms := repository.NewMemoryRoomRepository()
		slots := repository.NewMemoryTimeSlotRepository()
		catalogSvc = service.NewCatalogService(courses, professors, rooms, slots, cfg.Timetable.AutocompleteLimit, validate, logr)
		schedulingSvc = service.NewSchedulingService(index, courses, professors, slots, rooms, metricsSvc, validate, logr)
		timetableSvc = service.NewTimetableService(index, slots, rooms, catalogSvc, cacheSvc, metricsSvc, cfg.Cache.TTL, logr)
		syncer = service.NewEntrySyncService(repository.NewMemoryScheduleEntryRepository(), index, metricsSvc, syncCfg, logr)
	}
	catalogSvc.SetCache(cacheSvc)
	catalogSvc.SetMetrics(metricsSvc)

	if err := bootstrapTimetable(ctx, cfg, catalogSvc, schedulingSvc, syncer); err != nil {
		return err
	}

	// the queue outlives the signal context so pending writes flush after the server stops
	syncer.Start(context.Background())
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = syncer.Stop(flushCtx)
	}()
	schedulingSvc.AddListener(syncer)

	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(logr, metricsSvc.SetRealtimeClients)
		go hub.Run(ctx)
		schedulingSvc.AddListener(service.NewRealtimeNotifier(hub, logr))
	}

	var auditor *service.IntegrityAuditor
	if cfg.Audit.Enabled {
		auditor = service.NewIntegrityAuditor(index, metricsSvc, logr)
		auditor.Run()
		if err := auditor.Start(cfg.Audit.Schedule); err != nil {
			return err
		}
		defer auditor.Stop()
	}

	exportSvc := service.NewExportService(index, service.ExportConfig{
		TermStart: cfg.Export.TermStart,
		TermWeeks: cfg.Export.TermWeeks,
	}, logr, nil, nil)

	router := newRouter(cfg, logr, routes{
		timetable: handler.NewTimetableHandler(schedulingSvc, timetableSvc, auditor),
		catalog:   handler.NewCatalogHandler(catalogSvc),
		export:    handler.NewExportHandler(exportSvc),
		realtime:  realtimeHandler(hub, logr),
		metrics:   handler.NewMetricsHandler(metricsSvc, index, auditor),
	}, metricsSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "catalog", cfg.Catalog.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// bootstrapTimetable seeds the catalog and fills the index from the entry store, falling
// back to the seed entries when nothing has been persisted yet.
func bootstrapTimetable(ctx context.Context, cfg *config.Config, catalogSvc *service.CatalogService, schedulingSvc *service.SchedulingService, syncer *service.EntrySyncService) error {
	seed := repository.DefaultSeed()
	if cfg.Catalog.Seed {
		if err := catalogSvc.Seed(ctx, seed); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	} else if err := catalogSvc.RebuildIndexes(ctx); err != nil {
		return fmt.Errorf("build identifier indexes: %w", err)
	}

	persisted, err := syncer.Load(ctx)
	if err != nil {
		return err
	}
	if len(persisted) > 0 {
		return schedulingSvc.Restore(ctx, persisted)
	}
	if !cfg.Catalog.Seed {
		return nil
	}
	if err := schedulingSvc.Restore(ctx, seed.Entries); err != nil {
		return fmt.Errorf("seed timetable: %w", err)
	}
	return syncer.PersistAll(ctx, seed.Entries)
}

func newCacheService(ctx context.Context, cfg *config.Config, metricsSvc *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	closeFn := func() {}
	var repo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, cfg.Cache.Namespace, logr)
			repo = redisRepo
			closeFn = func() { _ = redisRepo.Close() }
		}
	}
	return service.NewCacheService(repo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled), closeFn
}

func realtimeHandler(hub *realtime.Hub, logr *zap.Logger) *handler.RealtimeHandler {
	if hub == nil {
		return nil
	}
	return handler.NewRealtimeHandler(hub, logr)
}

type routes struct {
	timetable *handler.TimetableHandler
	catalog   *handler.CatalogHandler
	export    *handler.ExportHandler
	realtime  *handler.RealtimeHandler
	metrics   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routes, metricsSvc *service.MetricsService) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	schedule := api.Group("/schedule")
	schedule.POST("", h.timetable.Create)
	schedule.GET("/day", h.timetable.ListByDay)
	schedule.GET("/all", h.timetable.ListAll)
	schedule.GET("/export.pdf", h.export.PDF)
	schedule.GET("/export.ics", h.export.ICS)
	schedule.GET("/:id", h.timetable.Get)
	schedule.DELETE("/:id", h.timetable.Delete)

	api.GET("/stats", h.timetable.Stats)

	api.GET("/autocomplete/course", h.catalog.AutocompleteCourse)
	api.GET("/autocomplete/room", h.catalog.AutocompleteRoom)

	courses := api.Group("/courses")
	courses.GET("", h.catalog.ListCourses)
	courses.POST("", h.catalog.CreateCourse)
	courses.GET("/:id", h.catalog.GetCourse)
	courses.PATCH("/:id/enrollment", h.catalog.UpdateEnrollment)

	professors := api.Group("/professors")
	professors.GET("", h.catalog.ListProfessors)
	professors.POST("", h.catalog.CreateProfessor)
	professors.GET("/:id", h.catalog.GetProfessor)

	rooms := api.Group("/rooms")
	rooms.GET("", h.catalog.ListRooms)
	rooms.POST("", h.catalog.CreateRoom)
	rooms.GET("/available", h.timetable.AvailableRooms)
	rooms.GET("/:id", h.catalog.GetRoom)

	slots := api.Group("/timeslots")
	slots.GET("", h.catalog.ListTimeSlots)
	slots.POST("", h.catalog.CreateTimeSlot)
	slots.GET("/:id", h.catalog.GetTimeSlot)

	if h.realtime != nil {
		api.GET("/ws/timetable", h.realtime.Subscribe)
	}

	return r
}
