package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikeboe/research-assistant/pkg/research"
)

// JobIDHeader carries the id of the recorded job on research responses.
const JobIDHeader = "X-Research-Job-Id"

// MCPSession represents an MCP session
type MCPSession struct {
	ID      string
	Created int64
}

// MCPRequest represents an MCP JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an MCP JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	Service *Service

	sessionMu   sync.RWMutex
	mcpSessions map[string]*MCPSession
}

func NewHandler(s *Service) *Handler {
	return &Handler{
		Service:     s,
		mcpSessions: make(map[string]*MCPSession),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.home)
	r.POST("/research", h.research)
	r.POST("/mcp", h.MCPHandler)

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/test", h.health)
		api.POST("/research", h.research)

		api.GET("/jobs", h.listJobs)
		api.GET("/jobs/:id", h.getJob)
		api.GET("/jobs/:id/logs", h.getJobLogs)
	}
}

func (h *Handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Research Assistant API!",
		"usage":   "POST /api/research or /research with {'topic': '...', 'format': 'summary|bullet points|short report|custom format'}",
		"health":  "/api/health for API health check",
		"jobs":    "/api/jobs for the research history",
	})
}

func (h *Handler) health(c *gin.Context) {
	info := h.Service.Info
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"credentials": gin.H{
			"api_key_available":  info.APIKeySet,
			"model":              info.Model,
			"database_available": h.Service.Store != nil,
		},
	})
}

func (h *Handler) research(c *gin.Context) {
	var req research.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, research.Response{Success: false, Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if err := Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, research.Response{Success: false, Error: err.Error()})
		return
	}

	resp, jobID := h.Service.Research(c.Request.Context(), req)
	if jobID != uuid.Nil {
		c.Header(JobIDHeader, jobID.String())
	}
	// Application failures travel in the envelope, not the status code.
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := h.Service.ListJobs(c.Request.Context(), limit)
	if err != nil {
		h.jobError(c, err)
		return
	}
	// Return empty list instead of null
	if jobs == nil {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) getJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	job, err := h.Service.GetJob(c.Request.Context(), id)
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) getJobLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.GetJobLogs(c.Request.Context(), id)
	if err != nil {
		h.jobError(c, err)
		return
	}
	if logs == nil {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) jobError(c *gin.Context, err error) {
	if errors.Is(err, ErrNoDatabase) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	// Differentiate 404 vs 500 later if needed
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// MCPHandler handles MCP protocol requests
func (h *Handler) MCPHandler(c *gin.Context) {
	sessionID := c.GetHeader("Mcp-Session-Id")

	var req MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      nil,
			Error:   &MCPError{Code: -32700, Message: "Parse error"},
		})
		return
	}

	// Handle initialize request
	if req.Method == "initialize" {
		if sessionID == "" {
			sessionID = uuid.New().String()
			h.sessionMu.Lock()
			h.mcpSessions[sessionID] = &MCPSession{
				ID:      sessionID,
				Created: time.Now().Unix(),
			}
			h.sessionMu.Unlock()
		}
		c.Header("Mcp-Session-Id", sessionID)

		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"serverInfo": map[string]interface{}{
					"name":    "research-assistant-mcp",
					"version": "1.0.0",
				},
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
			},
		})
		return
	}

	// Validate session for other requests
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32000, Message: "Bad Request: No valid session ID provided"},
		})
		return
	}

	h.sessionMu.RLock()
	_, exists := h.mcpSessions[sessionID]
	h.sessionMu.RUnlock()

	if !exists {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32000, Message: "Invalid session ID"},
		})
		return
	}

	switch req.Method {
	case "tools/list":
		h.handleToolsList(c, req)
	case "tools/call":
		h.handleToolsCall(c, req)
	case "ping":
		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		})
	default:
		h.sendError(c, req.ID, -32601, "Method not found")
	}
}

func (h *Handler) handleToolsList(c *gin.Context, req MCPRequest) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": []map[string]interface{}{
				{
					"name":        "research",
					"description": "Research a topic and return the findings in the requested output format.",
					"inputSchema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"topic": map[string]interface{}{
								"type":        "string",
								"description": "The topic to research.",
							},
							"format": map[string]interface{}{
								"type":        "string",
								"description": "Output format, e.g. summary, bullet points, short report.",
								"default":     "summary",
							},
						},
						"required": []string{"topic"},
					},
				},
			},
		},
	})
}

func (h *Handler) handleToolsCall(c *gin.Context, req MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.sendError(c, req.ID, -32602, "Invalid params")
		return
	}

	switch params.Name {
	case "research":
		var args research.Request
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			h.sendError(c, req.ID, -32602, "Invalid arguments")
			return
		}
		if err := Validate(args); err != nil {
			h.sendError(c, req.ID, -32602, err.Error())
			return
		}
		resp, _ := h.Service.Research(c.Request.Context(), args)
		if !resp.Success {
			h.sendResult(c, req.ID, resp.Error, true)
			return
		}
		h.sendResult(c, req.ID, resp.Result, false)

	default:
		h.sendError(c, req.ID, -32601, fmt.Sprintf("Tool not found: %s", params.Name))
	}
}

func (h *Handler) sendError(c *gin.Context, id interface{}, code int, msg string) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	})
}

func (h *Handler) sendResult(c *gin.Context, id interface{}, text string, isError bool) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
			"isError": isError,
		},
	})
}
