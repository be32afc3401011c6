package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niranjanisuresh/YouConnect/internal/auth"
	"github.com/niranjanisuresh/YouConnect/internal/bot"
	"github.com/niranjanisuresh/YouConnect/internal/config"
	"github.com/niranjanisuresh/YouConnect/internal/handler"
	"github.com/niranjanisuresh/YouConnect/internal/hub"
	"github.com/niranjanisuresh/YouConnect/internal/identity"
	"github.com/niranjanisuresh/YouConnect/internal/service"
	"github.com/niranjanisuresh/YouConnect/internal/store"
	"github.com/niranjanisuresh/YouConnect/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat core")

	// Hub fan-out loop.
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	messageStore := store.NewMessageStore(cfg.Chat.MaxMessagesPerRoom)
	resolver := identity.NewResolver(auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
	responder := bot.NewResponder(nil)
	scheduler := bot.NewScheduler(cfg.Bot.MinReplyDelay, cfg.Bot.MaxReplyDelay, cfg.Bot.ReplyProbability, nil)

	chatSvc := service.NewChatService(wsHub, messageStore, resolver, responder, scheduler, cfg.Bot, cfg.Chat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chatSvc.StartSweeper(ctx)

	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(chatSvc, cfg.Chat)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(logger))

	httpHandler.RegisterRoutes(router)
	router.GET("/chat/ws", gin.WrapF(wsHandler.HandleWebSocket))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chat core listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat core")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("chat core stopped")
}
