package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"flowpilot/internal/cli/client"
	"flowpilot/internal/cli/config"
	"flowpilot/internal/cli/output"
	"flowpilot/internal/snapshot"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "connect":
		return cmdConnect(args[1:])
	case "disconnect":
		return cmdDisconnect()
	case "status":
		return cmdStatus()
	case "agents":
		return cmdAgents(args[1:])
	case "balance":
		return cmdBalance(args[1:])
	case "portfolio":
		return cmdPortfolio()
	case "mode":
		return cmdMode(args[1:])
	case "market":
		return cmdMarket(args[1:])
	case "leaderboard":
		return cmdLeaderboard(args[1:])
	case "analytics":
		return cmdAnalytics(args[1:])
	case "watch":
		return cmdWatch(args[1:])
	case "export":
		return cmdExport(args[1:])
	case "import":
		return cmdImport(args[1:])
	default:
		return usage()
	}
}

func cmdConnect(args []string) error {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	token := fs.String("token", "", "Existing session token (defaults to opening a new session)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: flowpilot connect <url> [--token t]")
	}
	rawURL := strings.TrimSpace(fs.Arg(0))
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	cl := client.New(rawURL, "")
	var status map[string]any
	if err := cl.Get("/api/v1/status", &status); err != nil {
		return fmt.Errorf("validate server: %w", err)
	}

	sessionToken := strings.TrimSpace(*token)
	sessionID := ""
	if sessionToken == "" {
		var created struct {
			SessionID string `json:"session_id"`
			Token     string `json:"token"`
		}
		if err := cl.Post("/api/v1/sessions", map[string]any{}, &created); err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		sessionToken = created.Token
		sessionID = created.SessionID
	} else {
		authed := client.New(rawURL, sessionToken)
		var current struct {
			SessionID string `json:"session_id"`
		}
		if err := authed.Get("/api/v1/sessions/current", &current); err != nil {
			return fmt.Errorf("validate session token: %w", err)
		}
		sessionID = current.SessionID
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.SetDefault(rawURL, sessionToken, sessionID)
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("connected to %s (session %s)\n", rawURL, sessionID)
	return nil
}

func cmdDisconnect() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	srv, ok := cfg.Default()
	if !ok {
		fmt.Println("no active connection")
		return nil
	}
	// Close the server-side session too. A failure here should not
	// strand the local config.
	cl := client.New(srv.URL, srv.Token)
	if err := cl.Delete("/api/v1/sessions/current"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: close session:", err)
	}
	cfg.ClearDefault()
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println("disconnected")
	return nil
}

func cmdStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	srv, ok := cfg.Default()
	if !ok {
		return errors.New("not connected. run: flowpilot connect <url>")
	}
	cl := client.New(srv.URL, srv.Token)
	var status map[string]any
	if err := cl.Get("/api/v1/status", &status); err != nil {
		return err
	}
	var session map[string]any
	if err := cl.Get("/api/v1/sessions/current", &session); err != nil {
		return err
	}
	return printJSON(map[string]any{
		"server":       srv.URL,
		"connected_at": srv.ConnectedAt,
		"status":       status,
		"session":      session,
	})
}

func cmdAgents(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		fs := flag.NewFlagSet("agents list", flag.ContinueOnError)
		format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
		quiet := fs.Bool("quiet", false, "IDs only")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 0 {
			return errors.New("usage: flowpilot agents list [--format f] [--quiet]")
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Get("/api/v1/agents", &resp); err != nil {
			return err
		}
		return output.Print(resp, *format, *quiet)
	}
	switch args[0] {
	case "mint":
		return cmdAgentsMint(args[1:])
	case "show":
		return cmdAgentsShow(args[1:])
	case "pause":
		return cmdAgentsSetPaused(args[1:], "pause")
	case "resume":
		return cmdAgentsSetPaused(args[1:], "resume")
	case "strategy":
		return cmdAgentsStrategy(args[1:])
	}
	return errors.New("usage: flowpilot agents <list|mint|show|pause|resume|strategy>")
}

func cmdAgentsMint(args []string) error {
	fs := flag.NewFlagSet("agents mint", flag.ContinueOnError)
	strategyType := fs.String("strategy", "HighestAPY", "Strategy type")
	risk := fs.String("risk", "balanced", "Risk tolerance: conservative|balanced|aggressive")
	allocation := fs.Int("allocation", 50, "Allocation percent")
	lockDays := fs.Int("lock-days", 0, "Time lock in days")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return errors.New("usage: flowpilot agents mint <type> [--strategy s] [--risk r] [--allocation n] [--lock-days n]")
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	req := map[string]any{
		"type": strings.TrimSpace(positionals[0]),
		"strategy": map[string]any{
			"strategyType":      strings.TrimSpace(*strategyType),
			"riskTolerance":     strings.TrimSpace(*risk),
			"allocationPercent": *allocation,
			"timeLockDays":      *lockDays,
		},
	}
	var resp map[string]any
	if err := cl.Post("/api/v1/agents", req, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdAgentsShow(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: flowpilot agents show <id>")
	}
	id, err := parseAgentID(args[0])
	if err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Get("/api/v1/agents/"+strconv.Itoa(id), &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdAgentsSetPaused(args []string, action string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: flowpilot agents %s <id>", action)
	}
	id, err := parseAgentID(args[0])
	if err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Post("/api/v1/agents/"+strconv.Itoa(id)+"/"+action, map[string]any{}, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdAgentsStrategy(args []string) error {
	fs := flag.NewFlagSet("agents strategy", flag.ContinueOnError)
	strategyType := fs.String("strategy", "", "Strategy type")
	risk := fs.String("risk", "balanced", "Risk tolerance")
	allocation := fs.Int("allocation", 50, "Allocation percent")
	lockDays := fs.Int("lock-days", 0, "Time lock in days")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 || strings.TrimSpace(*strategyType) == "" {
		return errors.New("usage: flowpilot agents strategy <id> --strategy s [--risk r] [--allocation n] [--lock-days n]")
	}
	id, err := parseAgentID(positionals[0])
	if err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	req := map[string]any{
		"strategyType":      strings.TrimSpace(*strategyType),
		"riskTolerance":     strings.TrimSpace(*risk),
		"allocationPercent": *allocation,
		"timeLockDays":      *lockDays,
	}
	var resp map[string]any
	if err := cl.Put("/api/v1/agents/"+strconv.Itoa(id)+"/strategy", req, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdBalance(args []string) error {
	if len(args) == 0 {
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Get("/api/v1/balance", &resp); err != nil {
			return err
		}
		return printJSON(resp)
	}
	switch args[0] {
	case "reset":
		fs := flag.NewFlagSet("balance reset", flag.ContinueOnError)
		amount := fs.String("amount", "", "Balance to reset to (defaults to the standard demo balance)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		req := map[string]any{}
		if strings.TrimSpace(*amount) != "" {
			req["amount"] = strings.TrimSpace(*amount)
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Post("/api/v1/balance/reset", req, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	case "refresh":
		fs := flag.NewFlagSet("balance refresh", flag.ContinueOnError)
		address := fs.String("address", "", "Wallet address to query (defaults to the connected one)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		req := map[string]any{}
		if strings.TrimSpace(*address) != "" {
			req["address"] = strings.TrimSpace(*address)
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Post("/api/v1/balance/refresh", req, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	}
	return errors.New("usage: flowpilot balance [reset|refresh]")
}

func cmdPortfolio() error {
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Get("/api/v1/portfolio", &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdMode(args []string) error {
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		var resp map[string]any
		if err := cl.Get("/api/v1/mode", &resp); err != nil {
			return err
		}
		return printJSON(resp)
	}
	switch args[0] {
	case "connect", "disconnect":
		var resp map[string]any
		if err := cl.Post("/api/v1/mode/"+args[0], map[string]any{}, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	}
	return errors.New("usage: flowpilot mode [connect|disconnect]")
}

func cmdMarket(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		fs := flag.NewFlagSet("market list", flag.ContinueOnError)
		format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
		quiet := fs.Bool("quiet", false, "IDs only")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Get("/api/v1/market/listings", &resp); err != nil {
			return err
		}
		return output.Print(resp, *format, *quiet)
	}
	switch args[0] {
	case "sell":
		fs := flag.NewFlagSet("market sell", flag.ContinueOnError)
		price := fs.String("price", "", "Listing price in USDC")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*price) == "" {
			return errors.New("usage: flowpilot market sell --price n")
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Post("/api/v1/market/listings", map[string]any{"price": strings.TrimSpace(*price)}, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	case "unlist":
		if len(args) != 2 {
			return errors.New("usage: flowpilot market unlist <listing-id>")
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		if err := cl.Delete("/api/v1/market/listings/" + url.PathEscape(strings.TrimSpace(args[1]))); err != nil {
			return err
		}
		fmt.Printf("unlisted %s\n", strings.TrimSpace(args[1]))
		return nil
	case "buy":
		if len(args) != 2 {
			return errors.New("usage: flowpilot market buy <listing-id>")
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Post("/api/v1/market/listings/"+url.PathEscape(strings.TrimSpace(args[1]))+"/purchase", map[string]any{}, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	case "fleets":
		fs := flag.NewFlagSet("market fleets", flag.ContinueOnError)
		format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
		quiet := fs.Bool("quiet", false, "IDs only")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		var resp map[string]any
		if err := cl.Get("/api/v1/market/fleets", &resp); err != nil {
			return err
		}
		return output.Print(resp, *format, *quiet)
	}
	return errors.New("usage: flowpilot market <list|sell|unlist|buy|fleets>")
}

func cmdLeaderboard(args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Number of fleets to show")
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	quiet := fs.Bool("quiet", false, "IDs only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	path := "/api/v1/leaderboard"
	if *limit > 0 {
		path += "?limit=" + strconv.Itoa(*limit)
	}
	var resp map[string]any
	if err := cl.Get(path, &resp); err != nil {
		return err
	}
	return output.Print(resp, *format, *quiet)
}

func cmdAnalytics(args []string) error {
	fs := flag.NewFlagSet("analytics", flag.ContinueOnError)
	timeframe := fs.String("timeframe", "30d", "Timeframe: 7d|30d|90d")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Get("/api/v1/analytics?timeframe="+url.QueryEscape(strings.TrimSpace(*timeframe)), &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	topics := fs.String("topics", "", "Comma-separated topics (defaults to all)")
	timeout := fs.Duration("timeout", 25*time.Second, "Long-poll window per request")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	cl = cl.LongPoll()
	path := "/api/v1/events?timeout_ms=" + strconv.FormatInt(timeout.Milliseconds(), 10)
	if t := strings.TrimSpace(*topics); t != "" {
		path += "&topics=" + url.QueryEscape(t)
	}
	for {
		var payload struct {
			Events []map[string]any `json:"events"`
		}
		if err := cl.Get(path, &payload); err != nil {
			return err
		}
		for _, ev := range payload.Events {
			if err := printJSON(ev); err != nil {
				return err
			}
		}
	}
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", "", "Destination file (.json or .yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*out) == "" {
		return errors.New("usage: flowpilot export --out <path>")
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var snap snapshot.Snapshot
	if err := cl.Get("/api/v1/snapshot", &snap); err != nil {
		return err
	}
	if err := snapshot.WriteFile(strings.TrimSpace(*out), &snap); err != nil {
		return err
	}
	fmt.Printf("exported %d agents to %s\n", len(snap.Agents), strings.TrimSpace(*out))
	return nil
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	from := fs.String("from", "", "Snapshot file (.json or .yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*from) == "" {
		return errors.New("usage: flowpilot import --from <path>")
	}
	snap, err := snapshot.ReadFile(strings.TrimSpace(*from))
	if err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Post("/api/v1/snapshot", snap, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func parseAgentID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.New("invalid agent id")
	}
	return id, nil
}

func defaultClient() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	srv, ok := cfg.Default()
	if !ok {
		return nil, errors.New("not connected. run: flowpilot connect <url>")
	}
	return client.New(srv.URL, srv.Token), nil
}

func parseInterspersedFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	positionals := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}

		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == "" {
			positionals = append(positionals, arg)
			continue
		}
		name := trimmed
		value := ""
		hasValue := false
		if idx := strings.Index(trimmed, "="); idx >= 0 {
			name = trimmed[:idx]
			value = trimmed[idx+1:]
			hasValue = true
		}

		f := fs.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("flag provided but not defined: -%s", name)
		}
		isBool := false
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			isBool = true
		}

		if !hasValue {
			if isBool {
				value = "true"
			} else {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("flag needs an argument: -%s", name)
				}
				i++
				value = args[i]
			}
		}

		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	return positionals, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func usage() error {
	return errors.New(`usage:
  flowpilot connect <url> [--token t]
  flowpilot disconnect
  flowpilot status
  flowpilot agents list [--format f] [--quiet]
  flowpilot agents mint <type> [--strategy s] [--risk r] [--allocation n] [--lock-days n]
  flowpilot agents show <id>
  flowpilot agents pause <id>
  flowpilot agents resume <id>
  flowpilot agents strategy <id> --strategy s [--risk r] [--allocation n] [--lock-days n]
  flowpilot balance [reset [--amount n]|refresh [--address a]]
  flowpilot portfolio
  flowpilot mode [connect|disconnect]
  flowpilot market list [--format f] [--quiet]
  flowpilot market sell --price n
  flowpilot market unlist <listing-id>
  flowpilot market buy <listing-id>
  flowpilot market fleets [--format f] [--quiet]
  flowpilot leaderboard [--limit n] [--format f] [--quiet]
  flowpilot analytics [--timeframe 7d|30d|90d]
  flowpilot watch [--topics a,b] [--timeout 25s]
  flowpilot export --out <path>
  flowpilot import --from <path>`)
}
