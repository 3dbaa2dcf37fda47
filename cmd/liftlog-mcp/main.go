package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL for remote mode (e.g. https://liftlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", "", "API key for the LiftLog server (remote mode)")
	dataDir := flag.String("data", "", "session data directory for local mode")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	// Logs go to stderr; stdout is the MCP transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" && *dataDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL> [-api-key KEY] | -data <dir>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var ds mcp.DataSource
	if *serverURL != "" {
		ds = mcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	} else {
		st, err := store.Open(*dataDir, log)
		if err != nil {
			log.Error("failed to open session store", "error", err)
			os.Exit(1)
		}
		defer st.Close()

		manager := session.NewManager(st, nil, log)
		defer manager.Close()
		manager.Resume()
		ds = mcp.NewLocal(manager)
		log.Info("local mode", "data", *dataDir)
	}

	s := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
