// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"cardbank/internal/carddelivery"
	"cardbank/internal/cardrepo"
	"cardbank/internal/cardservice"
	"cardbank/internal/middleware"
	"cardbank/internal/sessiondelivery"
	"cardbank/internal/sessionrepo"
	"cardbank/internal/sessionservice"
	"cardbank/internal/transferdelivery"
	"cardbank/internal/transferrepo"
	"cardbank/internal/transferservice"
	"cardbank/internal/userdelivery"
	"cardbank/internal/userrepo"
	"cardbank/internal/userservice"
	"cardbank/pkg/configpkg"
	"cardbank/pkg/cryptopkg"
	"cardbank/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	cardRepo := cardrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	crypto, err := cryptopkg.New(config.CardKeyB64, logger)
	if err != nil {
		return nil, errors.New("cannot create card crypto service")
	}

	userService := userservice.New(userRepo)
	cardService := cardservice.New(cardRepo, crypto)
	transferService := transferservice.New(transferRepo, cardService)

	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)
	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	cardHandler := carddelivery.NewHandler(cardService)
	transferHandler := transferdelivery.NewHandler(transferService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/cards", cardHandler.List)
	authRoutes.GET("/cards/:id", cardHandler.Get)

	authRoutes.POST("/transfers", transferHandler.Create)
	authRoutes.GET("/transfers", transferHandler.List)

	adminRoutes := engine.Group("/admin").Use(
		middleware.AuthMiddleware(sessionService.TokenMaker),
		middleware.AdminMiddleware(),
	)

	adminRoutes.POST("/cards", cardHandler.Create)
	adminRoutes.GET("/cards", cardHandler.ListAll)
	adminRoutes.GET("/cards/:id", cardHandler.GetAny)
	adminRoutes.PUT("/cards/:id/status", cardHandler.SetStatus)
	adminRoutes.PUT("/cards/:id/block", cardHandler.Block)
	adminRoutes.PUT("/cards/:id/activate", cardHandler.Activate)
	adminRoutes.DELETE("/cards/:id", cardHandler.Delete)

	adminRoutes.GET("/users", userHandler.List)
	adminRoutes.PUT("/users/:username/role", userHandler.SetRole)
	adminRoutes.PUT("/users/:username/enabled", userHandler.SetEnabled)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("cardnumber", carddelivery.ValidCardNumber)
		if err != nil {
			return nil, errors.New("cannot register card number validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
