package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// IPCRequest represents a tool call from the MCP server
type IPCRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// IPCResponse represents a response to the MCP server. Envelope is the
// bridge's tool result envelope, passed through untouched; Success and
// Error describe the transport only.
type IPCResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Envelope json.RawMessage `json:"envelope,omitempty"`
}

// ToolHandler is the callback for executing relayed tool calls.
// It returns the result envelope as JSON.
type ToolHandler func(ctx context.Context, tool string, args map[string]interface{}) (string, error)

// Handler manages file-based IPC with the MCP server process. The MCP
// server writes a request file; the bridge answers through a response
// file. One call is in flight at a time, which matches the one-page
// browser session behind the tools.
type Handler struct {
	ipcDir       string
	requestFile  string
	responseFile string
	toolHandler  ToolHandler
	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewHandler creates a new IPC handler
func NewHandler(baseDir string, handler ToolHandler) (*Handler, error) {
	ipcDir := filepath.Join(baseDir, "ipc")
	if err := os.MkdirAll(ipcDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create IPC directory: %w", err)
	}

	return &Handler{
		ipcDir:       ipcDir,
		requestFile:  filepath.Join(ipcDir, "request.json"),
		responseFile: filepath.Join(ipcDir, "response.json"),
		toolHandler:  handler,
	}, nil
}

// GetEnvVars returns environment variables for the MCP server
func (h *Handler) GetEnvVars() map[string]string {
	return map[string]string{
		"LINKEDIN_MCP_REQUEST_FILE":  h.requestFile,
		"LINKEDIN_MCP_RESPONSE_FILE": h.responseFile,
	}
}

// Start begins polling for IPC requests
func (h *Handler) Start(ctx context.Context) {
	h.ctx, h.cancel = context.WithCancel(ctx)

	// Clear any stale files
	os.Remove(h.requestFile)
	os.Remove(h.responseFile)

	h.wg.Add(1)
	go h.pollLoop()
	fmt.Printf("[IPC] Watching %s\n", h.requestFile)
}

// Stop stops the IPC handler
func (h *Handler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

func (h *Handler) pollLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.processRequest()
		}
	}
}

func (h *Handler) processRequest() {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := os.ReadFile(h.requestFile)
	if err != nil || len(data) == 0 {
		return
	}

	// Clear the request file immediately so a slow tool call is not
	// re-read on the next tick.
	os.Remove(h.requestFile)

	var req IPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.writeResponse(IPCResponse{Success: false, Error: "invalid request"})
		return
	}
	if req.Tool == "" {
		h.writeResponse(IPCResponse{Success: false, Error: "tool is required"})
		return
	}

	if h.toolHandler == nil {
		h.writeResponse(IPCResponse{Success: false, Error: "no handler configured"})
		return
	}

	fmt.Printf("[IPC] Relayed tool call: %s\n", req.Tool)
	envelope, err := h.toolHandler(h.ctx, req.Tool, req.Arguments)
	if envelope == "" {
		msg := "empty tool result"
		if err != nil {
			msg = err.Error()
		}
		h.writeResponse(IPCResponse{Success: false, Error: msg})
		return
	}

	// Tool failures stay inside the envelope; the transport succeeded.
	h.writeResponse(IPCResponse{Success: true, Envelope: json.RawMessage(envelope)})
}

func (h *Handler) writeResponse(resp IPCResponse) {
	data, _ := json.Marshal(resp)
	os.WriteFile(h.responseFile, data, 0644)
}

// GetIPCDir returns the IPC directory path
func (h *Handler) GetIPCDir() string {
	return h.ipcDir
}
