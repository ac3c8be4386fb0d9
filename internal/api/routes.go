// routes.go - Route registration helpers
package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/wedding-planner/backend/internal/catalog"
	"github.com/wedding-planner/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions             SessionManager
	Assets               storage.AssetStore
	Catalog              *catalog.Catalog
	Logger               *slog.Logger
	Version              string
	AllowedImageTypes    string
	AllowProjectDeletion bool
	AllowAssetDeletion   bool
	PlaceTimeout         time.Duration
	WebSocketMaxKB       int
}

// Handlers holds all handler instances
type Handlers struct {
	Health      HealthHandler
	Catalog     CatalogHandler
	Assets      AssetHandler
	Projects    ProjectHandler
	Canvas      CanvasHandler
	Viewport    ViewportHandler
	Annotations AnnotationHandler
	Interaction InteractionHandler
	WebSocket   *WebSocketHub
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(deps.Version, deps.Sessions),
		Catalog:     NewCatalogHandler(deps.Catalog),
		Assets:      NewAssetHandler(deps.Assets, deps.AllowedImageTypes, deps.AllowAssetDeletion),
		Projects:    NewProjectHandler(deps.Sessions, deps.AllowProjectDeletion),
		Canvas:      NewCanvasHandler(deps.Sessions, deps.Catalog, deps.PlaceTimeout),
		Viewport:    NewViewportHandler(deps.Sessions),
		Annotations: NewAnnotationHandler(deps.Sessions),
		Interaction: NewInteractionHandler(deps.Sessions),
		WebSocket:   NewWebSocketHub(deps.Sessions, deps.WebSocketMaxKB, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")
	api.GET("/health", handlers.Health.HandleHealth)
	api.GET("/catalog", handlers.Catalog.HandleGetCatalog)

	assets := api.Group("/assets")
	assets.POST("", handlers.Assets.HandleUploadAsset)
	assets.GET("", handlers.Assets.HandleListAssets)
	assets.GET("/:id", handlers.Assets.HandleGetAsset)
	assets.GET("/:id/content", handlers.Assets.HandleGetAssetContent)
	assets.PATCH("/:id", handlers.Assets.HandleRenameAsset)
	assets.DELETE("/:id", handlers.Assets.HandleDeleteAsset)

	api.GET("/projects", handlers.Projects.HandleListProjects)

	project := api.Group("/projects/:projectId")
	project.GET("/scene", handlers.Projects.HandleGetScene)
	project.GET("/scene/msgpack", handlers.Projects.HandleGetSceneMsgpack)
	project.PUT("/scene", handlers.Projects.HandlePutScene)
	project.DELETE("", handlers.Projects.HandleDeleteProject)

	project.POST("/spaces", handlers.Canvas.HandleAddSpace)
	project.POST("/furniture", handlers.Canvas.HandlePlaceFurniture)
	project.POST("/walls/import", handlers.Canvas.HandleImportWalls)
	project.POST("/walls/upload", handlers.Canvas.HandleUploadWalls)
	project.DELETE("/walls/:wallId", handlers.Canvas.HandleDeleteWall)
	project.DELETE("/shapes/:shapeId", handlers.Canvas.HandleDeleteShape)
	project.DELETE("/texts/:textId", handlers.Canvas.HandleDeleteText)
	project.POST("/undo", handlers.Canvas.HandleUndo)
	project.POST("/redo", handlers.Canvas.HandleRedo)

	project.GET("/zoom", handlers.Viewport.HandleGetZoom)
	project.POST("/zoom", handlers.Viewport.HandleZoom)
	project.POST("/fit-extents", handlers.Viewport.HandleFitExtents)

	project.GET("/annotations", handlers.Annotations.HandleListAnnotations)
	project.POST("/annotations", handlers.Annotations.HandleAddAnnotation)
	project.PUT("/annotations/:annotationId", handlers.Annotations.HandleUpdateAnnotation)
	project.DELETE("/annotations/:annotationId", handlers.Annotations.HandleDeleteAnnotation)

	project.PUT("/tool", handlers.Interaction.HandleSetTool)
	project.POST("/pointer", handlers.Interaction.HandlePointer)

	project.GET("/ws", handlers.WebSocket.HandleWebSocket)
}

// MiddlewareOptions selects the optional middleware
type MiddlewareOptions struct {
	Logger           *slog.Logger
	RequestLogging   bool
	EnableCORS       bool
	AllowOrigins     string
	BodyLimit        string
	Compression      bool
	CompressionLevel int
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.Recover())

	if opts.RequestLogging && opts.Logger != nil {
		logger := opts.Logger
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper:     skipQuietRoutes,
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				level := slog.LevelInfo
				attrs := []slog.Attr{
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				}
				if v.Error != nil {
					level = slog.LevelWarn
					attrs = append(attrs, slog.String("error", v.Error.Error()))
				}
				logger.LogAttrs(context.Background(), level, "request", attrs...)
				return nil
			},
		}))
	}

	if opts.EnableCORS {
		origins := []string{"*"}
		if opts.AllowOrigins != "" {
			origins = strings.Split(opts.AllowOrigins, ",")
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: origins}))
	}
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
	if opts.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   opts.CompressionLevel,
			Skipper: isWebSocket,
		}))
	}
}

func skipQuietRoutes(c echo.Context) bool {
	return c.Path() == "/api/health" || isWebSocket(c)
}

func isWebSocket(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}
