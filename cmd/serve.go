package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	config "github.com/tracelabs/evmtracer/configs"
	"github.com/tracelabs/evmtracer/internal/handlers"
	"github.com/tracelabs/evmtracer/internal/middleware"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve traces over HTTP",
		Long:  "Runs an HTTP server that executes a full trace session per request.",
		Run: func(cmd *cobra.Command, args []string) {
			RunServe(cmd, args)
		},
	}
)

func RunServe(cmd *cobra.Command, args []string) {
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/traces/:txHash", handlers.TraceTransaction)
	}

	host := config.Cfg.API.Host
	if host == "" {
		host = ":3000"
	}
	log.Info().Str("host", host).Msg("Starting API server")
	if err := r.Run(host); err != nil {
		log.Fatal().Err(err).Msg("API server stopped")
	}
}
