// Package server assembles services, handlers and middleware into the HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"framex/internal/config"
	_ "framex/internal/docs" // swagger docs
	apperrors "framex/internal/errors"
	"framex/internal/handlers"
	"framex/internal/middleware"
	"framex/internal/services"
	"framex/internal/storage"
	"framex/internal/validator"
)

// Services bundles the service layer the router depends on.
type Services struct {
	Users      services.UserServicer
	MasterData services.MasterDataServicer
	Entries    services.EntryServicer
	Company    services.CompanyServicer
	Analytics  services.AnalyticsServicer
	Audit      services.AuditServicer
}

// NewServices wires the service layer over db. logos may be nil when object
// storage is not configured.
func NewServices(db *gorm.DB, logos services.LogoStore, cfg *config.Config) (*Services, error) {
	rule, err := services.ParseVisibilityRule(cfg.VisibilityRule)
	if err != nil {
		return nil, err
	}

	users := services.NewUserService(db)
	masterData := services.NewMasterDataService(db)
	entries := services.NewEntryService(db, masterData, rule)
	company := services.NewCompanyService(db, logos, cfg.S3.URLExpiry)

	return &Services{
		Users:      users,
		MasterData: masterData,
		Entries:    entries,
		Company:    company,
		Analytics:  services.NewAnalyticsService(entries, users, masterData, company, cfg.ReportLocation()),
		Audit:      services.NewAuditService(db),
	}, nil
}

// Options carries router settings that are not services.
type Options struct {
	// Location interprets date-only filters and names export files.
	Location *time.Location
	// LoginLimiter throttles login and recovery attempts per client IP.
	LoginLimiter *middleware.RateLimiter
}

// Routes a user with a pending password change may still reach.
var passwordChangeAllowed = []string{"/api/v1/profile", "/api/v1/profile/password"}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	validator.Register()

	setupHandler := handlers.NewSetupHandler(svc.Users, svc.Company, svc.Audit)
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Audit)
	masterDataHandler := handlers.NewMasterDataHandler(svc.MasterData, svc.Audit)
	entryHandler := handlers.NewEntryHandler(svc.Entries, svc.Analytics, svc.Audit, opts.Location)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	companyHandler := handlers.NewCompanyHandler(svc.Company, svc.Audit)

	router := gin.New()
	router.MaxMultipartMemory = 2 * storage.MaxLogoSize
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.ErrNotFound)
	})

	v1 := router.Group("/api/v1")

	// Public routes
	v1.GET("/setup/status", setupHandler.Status)
	v1.POST("/setup", setupHandler.Setup)
	v1.GET("/company", companyHandler.GetCompany)

	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.SignUp)
	throttled := auth.Group("/")
	if opts.LoginLimiter != nil {
		throttled.Use(middleware.RateLimit(opts.LoginLimiter))
	}
	throttled.POST("/login", authHandler.Login)
	throttled.POST("/recover", authHandler.Recover)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(
		middleware.AuthMiddleware(),
		middleware.LoadUser(svc.Users),
		middleware.RequirePasswordCurrent(passwordChangeAllowed...),
	)

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/password", authHandler.ChangePassword)
	protected.GET("/bootstrap", analyticsHandler.Bootstrap)

	entries := protected.Group("/entries")
	entries.GET("", entryHandler.ListEntries)
	entries.POST("", entryHandler.CreateEntry)
	entries.GET("/export", entryHandler.ExportEntries)
	entries.GET("/:id", entryHandler.GetEntry)
	entries.PUT("/:id", entryHandler.UpdateEntry)
	entries.DELETE("/:id", entryHandler.DeleteEntry)

	masterData := protected.Group("/master-data")
	masterData.GET("", masterDataHandler.ListAll)
	masterData.GET("/:type", masterDataHandler.List)
	masterData.POST("/:type", masterDataHandler.Create)
	masterData.PUT("/:type/:id", middleware.RequireAdmin(), masterDataHandler.Update)
	masterData.DELETE("/:type/:id", middleware.RequireAdmin(), masterDataHandler.Delete)

	// Admin routes
	admin := protected.Group("/")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/analytics", analyticsHandler.Summary)
	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/users", userHandler.CreateUser)
	admin.PUT("/users/:id", userHandler.UpdateUser)
	admin.DELETE("/users/:id", userHandler.DeleteUser)
	admin.PUT("/company", companyHandler.UpdateCompany)
	admin.POST("/company/logo", companyHandler.UploadLogo)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, Retry-After, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
