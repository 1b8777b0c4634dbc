package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imagegate/internal/catalog"
	"imagegate/internal/config"
	"imagegate/internal/handler"
	"imagegate/internal/repository"
	"imagegate/internal/service"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// New wires the catalog, the S3 store client, the orchestrating service, and
// the HTTP routes into a ready-to-run server. The catalog starts empty and
// lives exactly as long as the process.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.App.AllowedOrigins)))

	s3Repo, err := repository.NewS3Repository(&cfg.S3, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 repository: %w", err)
	}

	cat := catalog.New()
	imageService := service.NewImageService(s3Repo, cat, cfg, log)

	h := handler.NewHandler(imageService, cfg, log)

	router.POST("/upload", h.UploadImage)
	router.GET("/images", h.ListImages)
	router.DELETE("/images/:id", h.DeleteImage)
	router.GET("/test", h.Test)
	router.GET("/health", h.HealthCheck)

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:        router,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("bucket", cfg.S3.BucketName),
		zap.String("folder", cfg.App.StorageFolder),
		zap.Strings("routes", []string{
			"POST /upload",
			"GET /images",
			"DELETE /images/:id",
			"GET /test",
			"GET /health",
		}))

	return server, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
