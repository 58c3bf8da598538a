package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"flowpilot/internal/models"
)

type mcpMintArgs struct {
	Type     string                 `json:"type"`
	Strategy *models.StrategyConfig `json:"strategy,omitempty"`
}

type mcpListingsArgs struct {
	Limit *int `json:"limit,omitempty"`
}

type mcpEmptyArgs struct{}

func mcpHandler(sessions *Manager, version string) http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "flowpilot-server",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "flowpilot_list_agents",
		Description: "List the session's minted agents with status and farm details",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpEmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := mcpSession(sessions, req)
		if err != nil {
			return nil, nil, err
		}
		details, err := sess.Ledger.Details(ctx)
		if err != nil {
			return nil, nil, err
		}
		out, err := toJSONText(map[string]any{
			"agents": details,
			"total":  len(details),
		})
		if err != nil {
			return nil, nil, err
		}
		return textToolResult(out), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "flowpilot_mint_agent",
		Description: "Mint a new automation agent of the given strategy type",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpMintArgs) (*mcp.CallToolResult, any, error) {
		sess, err := mcpSession(sessions, req)
		if err != nil {
			return nil, nil, err
		}
		tag := strings.TrimSpace(args.Type)
		if tag == "" {
			return nil, nil, errors.New("type is required")
		}
		var cfg models.StrategyConfig
		if args.Strategy != nil {
			cfg = *args.Strategy
		}
		agent, err := sess.Ledger.Mint(ctx, tag, cfg)
		if err != nil {
			return nil, nil, err
		}
		out, err := toJSONText(agent)
		if err != nil {
			return nil, nil, err
		}
		return textToolResult(out), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "flowpilot_balance",
		Description: "Read the session's current balance and portfolio value",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpEmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := mcpSession(sessions, req)
		if err != nil {
			return nil, nil, err
		}
		balance, err := sess.Ledger.Balance(ctx)
		if err != nil {
			return nil, nil, err
		}
		value, err := sess.Ledger.PortfolioValue(ctx)
		if err != nil {
			return nil, nil, err
		}
		out, err := toJSONText(map[string]any{
			"balance":         balance,
			"portfolio_value": value,
			"mode":            sess.Mode.State().String(),
		})
		if err != nil {
			return nil, nil, err
		}
		return textToolResult(out), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "flowpilot_market_listings",
		Description: "List marketplace fleet listings",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpListingsArgs) (*mcp.CallToolResult, any, error) {
		sess, err := mcpSession(sessions, req)
		if err != nil {
			return nil, nil, err
		}
		listings, err := sess.Market.Listings(ctx)
		if err != nil {
			return nil, nil, err
		}
		if args.Limit != nil && *args.Limit > 0 && *args.Limit < len(listings) {
			listings = listings[:*args.Limit]
		}
		out, err := toJSONText(map[string]any{
			"listings": listings,
			"total":    len(listings),
		})
		if err != nil {
			return nil, nil, err
		}
		return textToolResult(out), nil, nil
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	verify := func(ctx context.Context, token string, req *http.Request) (*mcpauth.TokenInfo, error) {
		sess, ok := sessions.Lookup(token)
		if !ok {
			return nil, mcpauth.ErrInvalidToken
		}
		return &mcpauth.TokenInfo{
			Scopes:     []string{"read", "write"},
			Expiration: time.Now().UTC().Add(24 * time.Hour),
			UserID:     sess.ID,
			Extra: map[string]any{
				"session_id": sess.ID,
			},
		}, nil
	}

	return mcpauth.RequireBearerToken(verify, nil)(handler)
}

func mcpSession(sessions *Manager, req *mcp.CallToolRequest) (*Session, error) {
	if req == nil || req.Extra == nil || req.Extra.TokenInfo == nil {
		return nil, errors.New("missing auth token")
	}
	id, _ := req.Extra.TokenInfo.Extra["session_id"].(string)
	sess, ok := sessions.ByID(strings.TrimSpace(id))
	if !ok {
		return nil, errors.New("session not found")
	}
	return sess, nil
}

func textToolResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func toJSONText(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
