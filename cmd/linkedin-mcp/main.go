package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/mcpserver"
)

// This MCP server relays LinkedIn tool calls to the bridge process over
// file-based IPC. The bridge owns the browser; this process only speaks
// MCP stdio to the agent host and never touches the page itself.

// IPC file paths - these are set via environment variables printed by
// the bridge at startup
var (
	ipcRequestFile  = os.Getenv("LINKEDIN_MCP_REQUEST_FILE")
	ipcResponseFile = os.Getenv("LINKEDIN_MCP_RESPONSE_FILE")
)

// Tool calls drive a real browser, so enumeration or login checks can
// take a while.
const ipcTimeout = 120 * time.Second

type ipcRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type ipcResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Envelope json.RawMessage `json:"envelope,omitempty"`
}

func sendIPCRequest(ctx context.Context, tool string, args map[string]interface{}) (string, error) {
	if ipcRequestFile == "" || ipcResponseFile == "" {
		return "", fmt.Errorf("IPC not configured; start the bridge and export LINKEDIN_MCP_REQUEST_FILE and LINKEDIN_MCP_RESPONSE_FILE")
	}

	data, err := json.Marshal(ipcRequest{Tool: tool, Arguments: args})
	if err != nil {
		return "", err
	}

	// Clear any stale response file BEFORE writing the request
	os.Remove(ipcResponseFile)

	if err := os.WriteFile(ipcRequestFile, data, 0644); err != nil {
		return "", err
	}

	timeout := time.After(ipcTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timeout:
			return "", fmt.Errorf("IPC timeout after %v", ipcTimeout)
		case <-ticker.C:
			respData, err := os.ReadFile(ipcResponseFile)
			if err != nil || len(respData) == 0 {
				continue
			}

			os.Remove(ipcResponseFile)

			var resp ipcResponse
			if err := json.Unmarshal(respData, &resp); err != nil {
				return "", err
			}
			if !resp.Success {
				return "", fmt.Errorf("%s", resp.Error)
			}
			return string(resp.Envelope), nil
		}
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	server := mcpserver.NewServer(&mcpserver.Callbacks{Execute: sendIPCRequest})

	// stdout carries the MCP transport, so all logging goes to stderr
	fmt.Fprintln(os.Stderr, "[linkedin-mcp] Serving LinkedIn tools over stdio")
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "[linkedin-mcp] Server error: %v\n", err)
		os.Exit(1)
	}
}
