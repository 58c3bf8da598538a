package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

func Print(payload map[string]any, format string, quiet bool) error {
	if quiet {
		format = "quiet"
	}
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}

	switch format {
	case "json":
		return printJSON(payload)
	case "table":
		return printTable(payload)
	case "plain":
		return printPlain(payload)
	case "md":
		return printMarkdown(payload)
	case "quiet":
		return printQuiet(payload)
	default:
		return errors.New("invalid --format value")
	}
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printTable(payload map[string]any) error {
	switch {
	case hasKey(payload, "agents"):
		fmt.Println("ID\tTYPE\tLABEL\tSTATUS\tCOST\tFARM")
		for _, row := range toObjectSlice(payload["agents"]) {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
				str(row["id"]), str(row["type"]), str(row["label"]), str(row["status"]), str(row["cost"]), str(row["farm"]))
		}
	case hasKey(payload, "listings"):
		fmt.Println("ID\tNAME\tSELLER\tPRICE\tRARITY\tAGENTS")
		for _, row := range toObjectSlice(payload["listings"]) {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
				str(row["id"]), str(row["name"]), str(row["seller"]), str(row["price"]), str(row["rarity"]), str(row["totalAgents"]))
		}
	case hasLeaderboard(payload):
		fmt.Println("RANK\tNAME\tOWNER\tBADGE\tSUCCESS\tPROFIT")
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
				str(row["rank"]), str(row["name"]), str(row["owner"]), str(row["badge"]), str(row["successRate"]), str(row["totalProfit"]))
		}
	case hasKey(payload, "fleets"):
		fmt.Println("ID\tNAME\tRARITY\tPRICE\tPURCHASED")
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
				str(row["id"]), str(row["name"]), str(row["rarity"]), str(row["purchasePrice"]), str(row["purchaseDate"]))
		}
	case hasKey(payload, "events"):
		fmt.Println("TOPIC\tPAYLOAD")
		for _, row := range toObjectSlice(payload["events"]) {
			fmt.Printf("%s\t%s\n", str(row["topic"]), compactJSON(row["payload"]))
		}
	default:
		return printJSON(payload)
	}
	return nil
}

func printPlain(payload map[string]any) error {
	switch {
	case hasKey(payload, "agents"):
		for _, row := range toObjectSlice(payload["agents"]) {
			fmt.Printf("%s %s %s\n", str(row["id"]), str(row["type"]), str(row["status"]))
		}
	case hasKey(payload, "listings"):
		for _, row := range toObjectSlice(payload["listings"]) {
			fmt.Printf("%s %s %s\n", str(row["id"]), str(row["name"]), str(row["price"]))
		}
	case hasLeaderboard(payload):
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Printf("%s %s %s\n", str(row["rank"]), str(row["name"]), str(row["owner"]))
		}
	case hasKey(payload, "fleets"):
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Printf("%s %s %s\n", str(row["id"]), str(row["name"]), str(row["rarity"]))
		}
	case hasKey(payload, "events"):
		for _, row := range toObjectSlice(payload["events"]) {
			fmt.Println(str(row["topic"]))
		}
	case hasKey(payload, "balance"):
		fmt.Println(str(payload["balance"]))
	case hasKey(payload, "mode"):
		fmt.Printf("%s %s\n", str(payload["mode"]), str(payload["address"]))
	default:
		return printJSON(payload)
	}
	return nil
}

func printMarkdown(payload map[string]any) error {
	switch {
	case hasKey(payload, "agents"):
		for _, row := range toObjectSlice(payload["agents"]) {
			fmt.Printf("- `%s` **%s** %s (%s)\n",
				str(row["id"]), str(row["label"]), str(row["emoji"]), str(row["status"]))
		}
	case hasKey(payload, "listings"):
		for _, row := range toObjectSlice(payload["listings"]) {
			fmt.Printf("- `%s` **%s** by %s for %s (%s)\n",
				str(row["id"]), str(row["name"]), str(row["seller"]), str(row["price"]), str(row["rarity"]))
		}
	case hasLeaderboard(payload):
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Printf("- #%s **%s** by %s %s\n",
				str(row["rank"]), str(row["name"]), str(row["owner"]), str(row["badge"]))
		}
	case hasKey(payload, "fleets"):
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Printf("- `%s` **%s** (%s)\n",
				str(row["id"]), str(row["name"]), str(row["rarity"]))
		}
	default:
		return printJSON(payload)
	}
	return nil
}

func printQuiet(payload map[string]any) error {
	switch {
	case hasKey(payload, "agents"):
		for _, row := range toObjectSlice(payload["agents"]) {
			fmt.Println(str(row["id"]))
		}
	case hasKey(payload, "listings"):
		for _, row := range toObjectSlice(payload["listings"]) {
			fmt.Println(str(row["id"]))
		}
	case hasKey(payload, "fleets"):
		for _, row := range toObjectSlice(payload["fleets"]) {
			fmt.Println(str(row["id"]))
		}
	case hasKey(payload, "events"):
		for _, row := range toObjectSlice(payload["events"]) {
			fmt.Println(str(row["topic"]))
		}
	case hasKey(payload, "balance"):
		fmt.Println(str(payload["balance"]))
	default:
		if id, ok := payload["id"]; ok {
			fmt.Println(str(id))
			return nil
		}
		return printJSON(payload)
	}
	return nil
}

// hasLeaderboard distinguishes leaderboard rows from purchased
// fleets, both of which arrive under a "fleets" key.
func hasLeaderboard(payload map[string]any) bool {
	rows := toObjectSlice(payload["fleets"])
	if len(rows) == 0 {
		return false
	}
	_, ok := rows[0]["rank"]
	return ok
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func toObjectSlice(v any) []map[string]any {
	in, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(in))
	for _, item := range in {
		if row, ok := item.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

func compactJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
