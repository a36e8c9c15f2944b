package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/macharden/macharden/internal/config"
	"github.com/macharden/macharden/internal/logger"
	mcpserver "github.com/macharden/macharden/internal/server"
	"github.com/macharden/macharden/internal/version"
)

func newServeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the rules as MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cfg)
			if err != nil {
				return err
			}

			mcpServer := server.NewMCPServer("macharden", version.GetVersion())
			svc := mcpserver.NewService(eng.catalog, eng.planner, eng.executor, cfg.RunnerConfig())
			mcpserver.RegisterTools(mcpServer, svc)

			logger.Infof("Starting macharden MCP server (version %s)", version.GetVersion())
			return runServer(mcpServer, cfg)
		},
	}
}

func healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	return mux
}

func runServer(mcpServer *server.MCPServer, cfg *config.Config) error {
	switch cfg.Transport {
	case "stdio":
		logger.Infof("Listening for requests on STDIO...")
		return server.ServeStdio(mcpServer)

	case "sse":
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		baseURL := fmt.Sprintf("http://%s", addr)

		customServer := &http.Server{
			Addr:              addr,
			Handler:           healthMux(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		sseServer := server.NewSSEServer(
			mcpServer,
			server.WithBaseURL(baseURL),
			server.WithHTTPServer(customServer),
		)

		logger.Infof("SSE server listening on %s", addr)
		logger.Infof("SSE endpoint available at: %s/sse", baseURL)
		logger.Infof("Health check available at: %s/health", baseURL)

		return sseServer.Start(addr)

	case "streamable-http":
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

		mux := healthMux()
		customServer := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		streamableServer := server.NewStreamableHTTPServer(
			mcpServer,
			server.WithStreamableHTTPServer(customServer),
		)
		mux.Handle("/mcp", streamableServer)

		logger.Infof("Streamable HTTP server listening on %s", addr)
		logger.Infof("MCP endpoint available at: http://%s/mcp", addr)

		return customServer.ListenAndServe()

	default:
		return fmt.Errorf("invalid transport type: %s (must be 'stdio', 'sse', or 'streamable-http')", cfg.Transport)
	}
}
