package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"forgestudio/internal/authz"
	"forgestudio/internal/caching"
	"forgestudio/internal/handlers"
	"forgestudio/internal/jobs"
	"forgestudio/internal/jobs/background"
	"forgestudio/internal/middleware"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"
	"forgestudio/internal/services"
	"forgestudio/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration. An empty secret lets the server start; every request
	// needing tokens then fails with SERVER_ERROR instead of the process
	// refusing to boot.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Printf("WARNING: JWT_SECRET is not set; authenticated requests will fail")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	bucketName := os.Getenv("MINIO_BUCKET")
	if bucketName == "" {
		bucketName = "forgestudio-attachments"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Printf("WARNING: OPENAI_API_KEY is not set; AI routes will be unavailable")
	}

	storageSvc, err := services.NewStorageService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background(), bucketName); err != nil {
		log.Printf("WARNING: failed to ensure bucket %s exists: %v", bucketName, err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepository(pool)
	tenantRepo := repositories.NewTenantRepository(pool)
	membershipRepo := repositories.NewMembershipRepository(pool)
	quotaRepo := repositories.NewQuotaRepository(pool)
	projectRepo := repositories.NewProjectRepository(pool)
	requirementRepo := repositories.NewRequirementRepository(pool)
	moduleRepo := repositories.NewModuleRepository(pool)
	taskRepo := repositories.NewTaskRepository(pool)
	attachmentRepo := repositories.NewAttachmentRepository(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	tokenSvc := services.NewTokenService(jwtSecret)
	authSvc := services.NewAuthService(userRepo, tenantRepo, membershipRepo, tokenSvc, cacheSvc)
	membershipSvc := services.NewMembershipService(membershipRepo)
	quotaSvc := services.NewQuotaService(quotaRepo)
	resolver := services.NewTenantResolver(tenantRepo, cacheSvc)
	aiSvc := services.NewAIService(openAIKey, cacheSvc)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, membershipSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantRepo, membershipRepo, userRepo, quotaSvc, cacheSvc)
	projectHandlers := handlers.NewProjectHandlers(projectRepo, quotaSvc)
	requirementHandlers := handlers.NewRequirementHandlers(requirementRepo, projectRepo, moduleRepo, taskRepo, quotaSvc, aiSvc)
	moduleHandlers := handlers.NewModuleHandlers(moduleRepo, projectRepo)
	taskHandlers := handlers.NewTaskHandlers(taskRepo, moduleRepo, quotaSvc, aiSvc)
	attachmentHandlers := handlers.NewAttachmentHandlers(attachmentRepo, projectRepo, storageSvc, quotaSvc, bucketName)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Background jobs
	reconciler := jobs.NewQuotaReconciler(tenantRepo, quotaRepo, projectRepo, requirementRepo, membershipRepo, attachmentRepo)
	scheduler := background.NewJobScheduler(reconciler)
	if err := scheduler.Start(); err != nil {
		log.Printf("WARNING: failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := e.Group("/v1")

	// Authentication routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(tokenSvc, cacheSvc))
	authed.GET("/auth/me", authHandlers.Me)
	authed.POST("/auth/logout", authHandlers.Logout)
	authed.POST("/auth/switch-tenant", authHandlers.SwitchTenant)

	// Tenant-scoped routes: token, then tenant resolution and membership.
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(tokenSvc, cacheSvc))
	protected.Use(middleware.TenantMiddleware(resolver, membershipSvc))

	// Tenant routes
	protected.GET("/tenant", tenantHandlers.Get)
	protected.PUT("/tenant", tenantHandlers.Update, middleware.RequirePermission(authz.TenantUpdate))
	protected.GET("/tenant/quota", tenantHandlers.GetQuota)
	protected.GET("/tenant/members", tenantHandlers.ListMembers)
	protected.POST("/tenant/members", tenantHandlers.InviteMember, middleware.RequirePermission(authz.TenantManageUsers))
	protected.PUT("/tenant/members/:userId", tenantHandlers.UpdateMemberRole, middleware.RequirePermission(authz.TenantManageUsers))
	protected.DELETE("/tenant/members/:userId", tenantHandlers.RemoveMember, middleware.RequirePermission(authz.TenantManageUsers))

	// Project routes
	protected.GET("/projects", projectHandlers.List, middleware.RequirePermission(authz.ProjectRead))
	protected.POST("/projects", projectHandlers.Create,
		middleware.RequirePermission(authz.ProjectCreate),
		middleware.RequireQuota(quotaSvc, models.QuotaProjects))
	protected.GET("/projects/:id", projectHandlers.Get, middleware.RequirePermission(authz.ProjectRead))
	protected.PUT("/projects/:id", projectHandlers.Update, middleware.RequirePermission(authz.ProjectUpdate))
	protected.DELETE("/projects/:id", projectHandlers.Delete, middleware.RequirePermission(authz.ProjectDelete))

	// Requirement routes
	protected.GET("/requirements", requirementHandlers.List, middleware.RequirePermission(authz.RequirementRead))
	protected.POST("/requirements", requirementHandlers.Create,
		middleware.RequirePermission(authz.RequirementCreate),
		middleware.RequireQuota(quotaSvc, models.QuotaRequirements))
	protected.GET("/requirements/:id", requirementHandlers.Get, middleware.RequirePermission(authz.RequirementRead))
	protected.PUT("/requirements/:id", requirementHandlers.Update, middleware.RequirePermission(authz.RequirementUpdate))
	protected.DELETE("/requirements/:id", requirementHandlers.Delete, middleware.RequirePermission(authz.RequirementDelete))
	protected.POST("/requirements/:id/analyze", requirementHandlers.Analyze,
		middleware.RequirePermission(authz.RequirementAnalyze),
		middleware.RequireQuota(quotaSvc, models.QuotaAIRequests))

	// Module routes
	protected.GET("/modules", moduleHandlers.List, middleware.RequirePermission(authz.ModuleRead))
	protected.POST("/modules", moduleHandlers.Create, middleware.RequirePermission(authz.ModuleCreate))
	protected.GET("/modules/:id", moduleHandlers.Get, middleware.RequirePermission(authz.ModuleRead))
	protected.PUT("/modules/:id", moduleHandlers.Update, middleware.RequirePermission(authz.ModuleUpdate))
	protected.DELETE("/modules/:id", moduleHandlers.Delete, middleware.RequirePermission(authz.ModuleDelete))

	// Task routes
	protected.GET("/tasks", taskHandlers.List, middleware.RequirePermission(authz.TaskRead))
	protected.POST("/tasks", taskHandlers.Create, middleware.RequirePermission(authz.TaskCreate))
	protected.GET("/tasks/:id", taskHandlers.Get, middleware.RequirePermission(authz.TaskRead))
	protected.PUT("/tasks/:id", taskHandlers.Update, middleware.RequirePermission(authz.TaskUpdate))
	protected.DELETE("/tasks/:id", taskHandlers.Delete, middleware.RequirePermission(authz.TaskDelete))
	protected.POST("/tasks/:id/generate-code", taskHandlers.GenerateCode,
		middleware.RequirePermission(authz.TaskGenerateCode),
		middleware.RequireQuota(quotaSvc, models.QuotaAIRequests))

	// Attachment routes
	protected.GET("/attachments", attachmentHandlers.List, middleware.RequirePermission(authz.AttachmentRead))
	protected.POST("/attachments", attachmentHandlers.Upload,
		middleware.RequirePermission(authz.AttachmentUpload))
	protected.GET("/attachments/:id/download", attachmentHandlers.Download, middleware.RequirePermission(authz.AttachmentRead))
	protected.DELETE("/attachments/:id", attachmentHandlers.Delete, middleware.RequirePermission(authz.AttachmentDelete))

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("ForgeStudio server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
