package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cardclash/backend/internal/auth"
	"cardclash/backend/internal/config"
	"cardclash/backend/internal/database"
	"cardclash/backend/internal/engine"
	"cardclash/backend/internal/handler"
	"cardclash/backend/internal/hub"
	"cardclash/backend/internal/store/gormstore"

	// Swagger imports
	_ "cardclash/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           CardClash API
// @version         1.0
// @description     This is the API for the CardClash service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Wire the engine: one store, one lock registry, four services.
	store := gormstore.New(database.DB)
	locks := engine.NewLocker()
	resolver := engine.NewResolver(store)
	registry := engine.NewRegistry(store, store, locks, resolver, log)
	dealer := engine.NewDealer(store, store, locks, log)
	turns := engine.NewTurnEngine(store, store, locks, resolver, log)

	events := hub.NewHub()
	lobbies := &handler.LobbyHandler{Registry: registry, Decks: store, Hub: events}
	match := &handler.MatchHandler{Dealer: dealer, Turns: turns, Hub: events}

	router := gin.Default()
	router.Use(handler.RequestLogger(log))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
		}

		// Public deck routes
		deckRoutes := apiV1.Group("/decks")
		deckRoutes.Use(auth.OptionalAuthMiddleware())
		{
			deckRoutes.GET("", handler.GetDecks)
			deckRoutes.GET("/:id", handler.GetDeckByID)
			deckRoutes.GET("/:id/cards", handler.GetCards)
			deckRoutes.GET("/:id/cards/:cardID", handler.GetCardByID)
		}

		// Lobby routes (protected)
		lobbyRoutes := apiV1.Group("/lobbies")
		lobbyRoutes.Use(auth.AuthMiddleware())
		{
			lobbyRoutes.POST("", lobbies.Create)
			lobbyRoutes.GET("", lobbies.Search)
			lobbyRoutes.GET("/:id", lobbies.GetByID)
			lobbyRoutes.POST("/:id/join", lobbies.Join)
			lobbyRoutes.DELETE("/:id/members/:userID", lobbies.RemoveMember)
			lobbyRoutes.PUT("/:id", lobbies.Update)
			lobbyRoutes.DELETE("/:id", lobbies.Delete)
			lobbyRoutes.POST("/:id/start", lobbies.Start)
			lobbyRoutes.GET("/:id/events", lobbies.Events)

			// Match routes
			lobbyRoutes.POST("/:id/distribute", match.Distribute)
			lobbyRoutes.POST("/:id/play-first", match.PlayFirstCard)
			lobbyRoutes.POST("/:id/play", match.PlayTurn)
			lobbyRoutes.GET("/:id/match", match.State)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			// Deck authoring CRUD
			adminDecks := adminRoutes.Group("/decks")
			{
				adminDecks.POST("", handler.CreateDeck)
				adminDecks.PUT("/:id", handler.UpdateDeck)
				adminDecks.DELETE("/:id", handler.DeleteDeck)

				adminDecks.POST("/:id/cards", handler.CreateCard)
				adminDecks.PUT("/:id/cards/:cardID", handler.UpdateCard)
				adminDecks.DELETE("/:id/cards/:cardID", handler.DeleteCard)
			}
		}
	}

	log.Infof("Server is running on %s", config.AppConfig.ServerAddr)
	log.Info("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ServerAddr))
}
