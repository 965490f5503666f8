// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/server"
	"library-admin/internal/config"
	"library-admin/internal/shared/infra"
	"library-admin/pkg/logging"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 选择 YAML）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    "stdout",
		Component: "api-server",
	})

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.DatabaseDriver, err)
	}
	log.Printf("Connected to %s", cfg.DatabaseDriver)

	// Redis 可选：未启用时通知只推送给本进程的 WebSocket 连接
	var redisInfra *infra.RedisInfra
	if cfg.RedisEnabled {
		redisInfra, err = infra.NewRedisInfra(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Println("Connected to Redis")
	}

	in := infra.New(store, redisInfra)
	defer in.Close()

	s := server.New(in, auth.Config{
		JWTSecret:      cfg.Auth.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}, server.Options{Logger: logger})

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := s.AuthService().EnsureAdminUser(bootCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		bootCancel()
		log.Fatalf("Failed to ensure admin user: %v", err)
	}
	bootCancel()

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
