package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/anthropics/linkedin-agent-bridge/internal/api"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
	"github.com/anthropics/linkedin-agent-bridge/internal/data"
	"github.com/anthropics/linkedin-agent-bridge/internal/infra/browser"
	"github.com/anthropics/linkedin-agent-bridge/internal/infra/linkedin"
	"github.com/anthropics/linkedin-agent-bridge/internal/mcp"
	"github.com/anthropics/linkedin-agent-bridge/internal/service"
	"github.com/anthropics/linkedin-agent-bridge/ipc"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	prompts, err := conf.LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Invalid prompts config: %v", err)
	}

	// Initialize the browser-backed LinkedIn client
	session := browser.NewSession(cfg.Browser)
	client := linkedin.NewClient(session, cfg.LinkedIn, cfg.Selectors, cfg.Store.DiagnosticsDir)

	// Initialize repository layer
	repos, err := data.NewRepositories(client, cfg.Store, cfg.Session)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}

	fmt.Printf("[Bridge] Visit DB: %s\n", cfg.Store.DBPath)
	fmt.Printf("[Bridge] Session DB: %s\n", cfg.Session.DBPath)
	fmt.Printf("[Bridge] Snapshot dir: %s\n", cfg.Store.SnapshotDir)

	// Initialize usecase layer and the tool surface
	usecases := biz.NewUsecases(repos.Messaging, repos.Snapshot, repos.Visit)
	toolHandler := mcp.NewHandler(usecases)

	ctx := context.Background()

	// Initial login probe. The result is informational; a logged-out
	// session just narrows the tool table until someone signs in.
	if status, err := usecases.Auth.CheckLoginStatus(ctx); err != nil {
		fmt.Printf("[Bridge] Login check failed: %v\n", err)
	} else if status.LoggedIn {
		fmt.Printf("[Bridge] Logged in as %s\n", status.AccountName)
	} else {
		fmt.Printf("[Bridge] Not logged in; open %s and sign in manually\n", cfg.API.DisplayURL)
	}

	// Initialize the agent when an endpoint is configured
	var agentRepo repo.AgentRepo
	var agentSvc *service.AgentService
	if cfg.Agent.APIKey != "" {
		agentRepo, err = data.NewAgentRepo(cfg.Agent, toolHandler, prompts.Agent.SystemPrompt)
		if err != nil {
			log.Fatalf("Failed to create agent client: %v", err)
		}
		agentSvc = service.NewAgentService(agentRepo, repos.Session, cfg.Session.ToSessionConfig())
		agentSvc.StartEventLoop()
		fmt.Println("[Bridge] Agent client started")
	} else {
		fmt.Println("[Bridge] OPENAI_API_KEY not set, agent endpoints disabled")
	}

	// Unread watcher
	watcher := service.NewWatcher(usecases.Conversations, repos.Visit, repos.Session, agentRepo, prompts, cfg.Watch)
	watcher.Start()

	// File IPC for the linkedin-mcp server process
	ipcHandler, err := ipc.NewHandler(cfg.MCP.IPCDir, toolHandler.Execute)
	if err != nil {
		log.Fatalf("Failed to create IPC handler: %v", err)
	}
	ipcHandler.Start(ctx)
	for name, value := range ipcHandler.GetEnvVars() {
		fmt.Printf("[Bridge] MCP env: %s=%s\n", name, value)
	}

	// HTTP API server
	apiServer := api.NewServer(agentSvc, usecases, toolHandler, agentRepo, repos.Snapshot, repos.Visit, cfg.API)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		watcher.Stop()
		ipcHandler.Stop()
		apiServer.Stop()
		if agentRepo != nil {
			agentRepo.Stop()
		}
		client.Stop()
		repos.Close()
		os.Exit(0)
	}()

	fmt.Println("Starting LinkedIn Agent Bridge...")
	if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
