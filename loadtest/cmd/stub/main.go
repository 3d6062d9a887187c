// Command stub serves the profile lookup and an Expo-compatible push receiver
// so the scheduler can be load tested without real collaborators.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/dietfit-notification-scheduler/loadtest/internal/stub"
)

func main() {
	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8090"
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	stub.NewHandler(stub.NewStorage()).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting loadtest stub", slog.String("port", port))
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("stub server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
