package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"unit-watcher/internal/config"
	"unit-watcher/internal/database"
	"unit-watcher/internal/fetcher"
	"unit-watcher/internal/handlers"
	"unit-watcher/internal/models"
	"unit-watcher/internal/ratelimit"
	"unit-watcher/internal/scheduler"
	"unit-watcher/internal/search"
)

var (
	db           *database.DB
	gormDB       *database.GormDB
	searchClient *search.SearchClient
	appConfig    *config.Config
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/watcher_config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// A primary query is a precondition for every run, so fail fast at
	// startup instead of at the first scheduled diff.
	if _, err := appConfig.PrimaryQuery(); err != nil {
		log.Fatalf("Invalid query configuration: %v", err)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "watcher_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "watcher_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "watcher_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		queries, err := queriesFromConfig(appConfig)
		if err != nil {
			log.Fatalf("Invalid query configuration: %v", err)
		}
		if err := gormDB.SyncQueries(queries); err != nil {
			log.Fatalf("Failed to sync queries: %v", err)
		}
	} else {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		db, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "watcher_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "watcher_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "watcher_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Initialize Meilisearch using config
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
	}
	meilisearchKey := appConfig.Search.Meilisearch.APIKey
	if meilisearchKey == "" {
		meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
	}

	searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)

	// Wait for Meilisearch to be ready
	time.Sleep(2 * time.Second)

	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	// Initialize rate limiter
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour, %d req/day (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	// Initialize and start scheduler (MySQL only)
	if gormDB != nil {
		f := fetcher.NewFetcher(appConfig.Fetcher, rateLimiter)
		appScheduler = scheduler.NewScheduler(gormDB, appConfig, f, searchClient)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()
	}

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5176"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", healthCheck)
	r.GET("/api/units", getUnits)
	r.GET("/api/units/:id", getUnit)

	r.GET("/api/ratelimit/stats", getRateLimitStats)

	r.GET("/api/search", searchUnits)
	r.GET("/api/filter", filterUnits)

	// Admin API routes (requires authentication in production)
	if gormDB != nil {
		adminHandler := handlers.NewAdminHandler(gormDB, appScheduler, appConfig)

		admin := r.Group("/api/admin")
		{
			// Statistics
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/activity", adminHandler.GetRecentUnits)
			admin.GET("/city-stats", adminHandler.GetCityStats)
			admin.GET("/price-distribution", adminHandler.GetPriceDistribution)

			// Watch run control
			admin.POST("/run/trigger", adminHandler.TriggerRun)
			admin.GET("/changes/latest", adminHandler.GetLatestChanges)

			// Cleanup operations
			admin.POST("/cleanup/run", adminHandler.RunCleanup)

			// Unit history
			admin.GET("/units/:id/history", adminHandler.GetUnitHistory)
		}

		log.Println("Admin API routes registered at /api/admin/*")
	}

	port := getEnv("PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getUnits(c *gin.Context) {
	var units []models.Unit
	var err error

	if gormDB != nil {
		units, err = gormDB.GetAllUnits()
	} else {
		units, err = db.GetAllUnits()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"units": units,
		"count": len(units),
	})
}

func getUnit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit id"})
		return
	}

	var unit *models.Unit
	if gormDB != nil {
		unit, err = gormDB.GetUnitByID(id)
	} else {
		unit, err = db.GetUnitByID(id)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unit not found"})
		return
	}

	c.JSON(http.StatusOK, unit)
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, rateLimiter.GetStats())
}

func searchUnits(c *gin.Context) {
	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")
	limit, _ := strconv.ParseInt(limitStr, 10, 64)

	docs, err := searchClient.Search(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":  docs,
		"count": len(docs),
	})
}

func filterUnits(c *gin.Context) {
	params := search.FilterParams{
		Query:  c.Query("q"),
		SortBy: c.Query("sort"),
	}

	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		if minPrice, parseErr := strconv.Atoi(minPriceStr); parseErr == nil {
			params.MinPrice = &minPrice
		}
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		if maxPrice, parseErr := strconv.Atoi(maxPriceStr); parseErr == nil {
			params.MaxPrice = &maxPrice
		}
	}
	if minFloorStr := c.Query("min_floor"); minFloorStr != "" {
		if minFloor, parseErr := strconv.Atoi(minFloorStr); parseErr == nil {
			params.MinFloor = &minFloor
		}
	}
	if layoutsStr := c.Query("layouts"); layoutsStr != "" {
		params.Layouts = strings.Split(layoutsStr, ",")
	}
	if citiesStr := c.Query("cities"); citiesStr != "" {
		params.Cities = strings.Split(citiesStr, ",")
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, parseErr := strconv.ParseInt(limitStr, 10, 64); parseErr == nil {
			params.Limit = limit
		}
	}

	docs, err := searchClient.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":  docs,
		"count": len(docs),
	})
}

// queriesFromConfig converts the configured date-range queries to the
// stored form.
func queriesFromConfig(cfg *config.Config) ([]models.Query, error) {
	queries := make([]models.Query, 0, len(cfg.Queries))
	for _, qc := range cfg.Queries {
		checkIn, err := qc.CheckInDate()
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", qc.Name, err)
		}
		checkOut, err := qc.CheckOutDate()
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", qc.Name, err)
		}
		queries = append(queries, models.Query{
			Name:         qc.Name,
			CheckInDate:  checkIn,
			CheckOutDate: checkOut,
			IsPrimary:    qc.Primary,
		})
	}
	return queries, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
