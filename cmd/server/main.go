package main

import (
	"accounts/internal/api"
	"accounts/internal/auth"
	"accounts/internal/config"
	"accounts/internal/mailer"
	"accounts/internal/model"
	"accounts/internal/service"
	"accounts/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func main() {
	// 初始化logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// 初始化配置，缺少签名密钥等必填项时直接退出
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to parse config")
	}

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise repository")
	}

	if err := model.SeedAdmin(context.Background(), repo, cfg); err != nil {
		logrus.WithError(err).Warn("failed to seed admin account")
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise mail archive storage")
	}

	notifier, err := mailer.New(cfg, store)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise mailer")
	}

	tokens, err := auth.NewTokens(cfg.TokenConfig())
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise token codec")
	}

	accounts := service.NewAccountService(repo, tokens, notifier, mailer.NewComposer(cfg.ClientURL, cfg.EmailFrom))

	httpHandler, err := api.NewHTTPHandler(accounts)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise http handler")
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	httpHandler.RegisterRoutes(r)

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithField("host", serverHost).Info("服务器启动")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("服务器启动失败")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	// 等待已受理请求的邮件发送完成
	accounts.Wait()
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, "+requestIDHeader)
		c.Header("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件，为每个请求分配 request_id
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		// Authorization 头不写入日志
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"size":       c.Writer.Size(),
			"client_ip":  c.ClientIP(),
		}).Info("http_request")
	}
}
