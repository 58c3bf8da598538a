package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"flowpilot/internal/cli/client"
)

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("FLOWPILOT_URL"))
	token := strings.TrimSpace(os.Getenv("FLOWPILOT_TOKEN"))
	if baseURL == "" || token == "" {
		fmt.Fprintln(os.Stderr, "FLOWPILOT_URL and FLOWPILOT_TOKEN are required")
		os.Exit(1)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		fmt.Fprintln(os.Stderr, "invalid FLOWPILOT_URL:", err)
		os.Exit(1)
	}

	cl := client.New(baseURL, token)
	in := bufio.NewScanner(os.Stdin)
	out := json.NewEncoder(os.Stdout)

	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		var req rpcRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			_ = out.Encode(rpcResponse{
				JSONRPC: "2.0",
				Error: &rpcError{
					Code:    -32700,
					Message: "parse error",
				},
			})
			continue
		}
		resp := handle(cl, req)
		if err := out.Encode(resp); err != nil {
			fmt.Fprintln(os.Stderr, "encode response:", err)
			os.Exit(1)
		}
	}
	if err := in.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "read stdin:", err)
		os.Exit(1)
	}
}

func handle(cl *client.Client, req rpcRequest) rpcResponse {
	resp := rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"serverInfo": map[string]any{
				"name":    "flowpilot-mcp",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
		}
		return resp
	case "tools/list":
		resp.Result = map[string]any{
			"tools": []map[string]any{
				{
					"name":        "flowpilot_list_agents",
					"description": "List the agents in the current fleet",
					"inputSchema": map[string]any{
						"type":       "object",
						"properties": map[string]any{},
					},
				},
				{
					"name":        "flowpilot_mint_agent",
					"description": "Mint a new yield agent",
					"inputSchema": map[string]any{
						"type": "object",
						"required": []string{
							"type",
						},
						"properties": map[string]any{
							"type":       map[string]any{"type": "string"},
							"strategy":   map[string]any{"type": "string"},
							"risk":       map[string]any{"type": "string"},
							"allocation": map[string]any{"type": "integer"},
						},
					},
				},
				{
					"name":        "flowpilot_balance",
					"description": "Current USDC balance of the session",
					"inputSchema": map[string]any{
						"type":       "object",
						"properties": map[string]any{},
					},
				},
				{
					"name":        "flowpilot_market_listings",
					"description": "Browse marketplace fleet listings",
					"inputSchema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"limit": map[string]any{"type": "integer"},
						},
					},
				},
				{
					"name":        "flowpilot_leaderboard",
					"description": "Top fleets ranked by performance score",
					"inputSchema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"limit": map[string]any{"type": "integer"},
						},
					},
				},
			},
		}
		return resp
	case "tools/call":
		result, err := handleToolCall(cl, req.Params)
		if err != nil {
			resp.Error = &rpcError{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": result},
			},
		}
		return resp
	default:
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
		return resp
	}
}

func handleToolCall(cl *client.Client, params map[string]any) (string, error) {
	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	switch name {
	case "flowpilot_list_agents":
		var resp map[string]any
		if err := cl.Get("/api/v1/agents", &resp); err != nil {
			return "", err
		}
		return toJSONString(resp)
	case "flowpilot_mint_agent":
		agentType, _ := args["type"].(string)
		if strings.TrimSpace(agentType) == "" {
			return "", errors.New("type is required")
		}
		strategy := map[string]any{
			"strategyType":      "HighestAPY",
			"riskTolerance":     "balanced",
			"allocationPercent": 50,
		}
		if s, _ := args["strategy"].(string); strings.TrimSpace(s) != "" {
			strategy["strategyType"] = strings.TrimSpace(s)
		}
		if r, _ := args["risk"].(string); strings.TrimSpace(r) != "" {
			strategy["riskTolerance"] = strings.TrimSpace(r)
		}
		if a, ok := args["allocation"].(float64); ok && a > 0 {
			strategy["allocationPercent"] = int(a)
		}
		req := map[string]any{
			"type":     strings.TrimSpace(agentType),
			"strategy": strategy,
		}
		var resp map[string]any
		if err := cl.Post("/api/v1/agents", req, &resp); err != nil {
			return "", err
		}
		return toJSONString(resp)
	case "flowpilot_balance":
		var resp map[string]any
		if err := cl.Get("/api/v1/balance", &resp); err != nil {
			return "", err
		}
		return toJSONString(resp)
	case "flowpilot_market_listings":
		var resp map[string]any
		if err := cl.Get("/api/v1/market/listings", &resp); err != nil {
			return "", err
		}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			if rows, ok := resp["listings"].([]any); ok && int(limit) < len(rows) {
				resp["listings"] = rows[:int(limit)]
				resp["total"] = int(limit)
			}
		}
		return toJSONString(resp)
	case "flowpilot_leaderboard":
		path := "/api/v1/leaderboard"
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			path += "?limit=" + strconv.Itoa(int(limit))
		}
		var resp map[string]any
		if err := cl.Get(path, &resp); err != nil {
			return "", err
		}
		return toJSONString(resp)
	default:
		return "", errors.New("unknown tool")
	}
}

func toJSONString(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
