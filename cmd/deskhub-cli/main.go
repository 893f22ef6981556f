package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/deskhub-app/deskhub/internal/client"
	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/health"
	"github.com/deskhub-app/deskhub/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	base := flag.NewFlagSet("deskhub-cli", flag.ExitOnError)
	addr := base.String("addr", "127.0.0.1:50051", "gRPC address")
	token := base.String("token", os.Getenv("AUTH_TOKEN"), "optional auth token for write methods")
	_ = base.Parse(os.Args[1:])

	args := base.Args()
	if len(args) == 0 {
		usage()
		return
	}
	command := args[0]
	commandArgs := args[1:]

	hub, err := client.New(client.Options{
		Addr:           *addr,
		Token:          *token,
		Insecure:       true,
		RequestTimeout: 15 * time.Second,
		RetryAttempts:  3,
	})
	if err != nil {
		log.Fatalf("dial error: %v", err)
	}
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch command {
	case "health":
		result, err := hub.GetHealth(ctx)
		exitOnError(err)
		printJSON(result)
	case "list-presets":
		result, err := hub.ListPresets(ctx)
		exitOnError(err)
		printJSON(result)
	case "get-preset":
		runGetPreset(ctx, hub, commandArgs)
	case "save-preset":
		runSavePreset(ctx, hub, commandArgs)
	case "delete-preset":
		runDeletePreset(ctx, hub, commandArgs)
	case "export-presets":
		runExportPresets(ctx, hub, commandArgs)
	case "import-presets":
		runImportPresets(ctx, hub, commandArgs)
	case "record-cost":
		runRecordCost(ctx, hub, commandArgs)
	case "cost-history":
		runCostHistory(ctx, hub, commandArgs)
	case "daily-summaries":
		runDailySummaries(ctx, hub, commandArgs)
	case "model-breakdown":
		runModelBreakdown(ctx, hub, commandArgs)
	case "summary-totals":
		result, err := hub.GetSummaryTotals(ctx)
		exitOnError(err)
		printJSON(result)
	case "prune-costs":
		runPruneCosts(ctx, hub, commandArgs)
	case "check-health":
		runCheckHealth(ctx, hub, commandArgs)
	case "list-themes":
		result, err := hub.ListIconThemes(ctx)
		exitOnError(err)
		printJSON(result)
	case "import-theme":
		runImportTheme(ctx, hub, commandArgs)
	case "delete-theme":
		runDeleteTheme(ctx, hub, commandArgs)
	case "list-snippets":
		runListSnippets(ctx, hub, commandArgs)
	case "save-snippet":
		runSaveSnippet(ctx, hub, commandArgs)
	case "list-favorites":
		result, err := hub.ListFavorites(ctx)
		exitOnError(err)
		printJSON(result)
	case "add-favorite":
		runAddFavorite(ctx, hub, commandArgs)
	default:
		usage()
	}
}

func runGetPreset(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("get-preset", flag.ExitOnError)
	id := flags.String("id", "", "required")
	_ = flags.Parse(args)

	result, err := hub.GetPreset(ctx, *id)
	exitOnError(err)
	printJSON(result)
}

func runSavePreset(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("save-preset", flag.ExitOnError)
	name := flags.String("name", "", "required")
	description := flags.String("description", "", "optional")
	modelsJSON := flags.String("models", "", `required JSON array, e.g. [{"provider":"anthropic","modelId":"claude-sonnet-4-5"}]`)
	_ = flags.Parse(args)

	var models []domain.ModelEntry
	if err := json.Unmarshal([]byte(*modelsJSON), &models); err != nil {
		log.Fatalf("invalid -models payload: %v", err)
	}

	result, err := hub.SavePreset(ctx, service.SavePresetRequest{
		Name:        *name,
		Description: *description,
		Models:      models,
	})
	exitOnError(err)
	printJSON(result)
}

func runDeletePreset(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("delete-preset", flag.ExitOnError)
	id := flags.String("id", "", "required")
	_ = flags.Parse(args)

	exitOnError(hub.DeletePreset(ctx, *id))
	fmt.Println("deleted")
}

func runExportPresets(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("export-presets", flag.ExitOnError)
	out := flags.String("out", "", "optional output file; stdout when empty")
	_ = flags.Parse(args)

	payload, err := hub.ExportPresets(ctx, flags.Args())
	exitOnError(err)
	if *out == "" {
		fmt.Println(payload)
		return
	}
	exitOnError(os.WriteFile(*out, []byte(payload+"\n"), 0o600))
	fmt.Printf("wrote %s\n", *out)
}

func runImportPresets(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("import-presets", flag.ExitOnError)
	file := flags.String("file", "", "required path to an exported preset JSON file")
	_ = flags.Parse(args)

	raw, err := os.ReadFile(*file)
	exitOnError(err)
	imported, err := hub.ImportPresets(ctx, string(raw))
	exitOnError(err)
	fmt.Printf("imported %d presets\n", imported)
}

func runRecordCost(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("record-cost", flag.ExitOnError)
	workspace := flags.String("workspace", "", "workspace id")
	model := flags.String("model", "", "required")
	inputTokens := flags.Int64("input-tokens", 0, "")
	outputTokens := flags.Int64("output-tokens", 0, "")
	cachedTokens := flags.Int64("cached-tokens", 0, "")
	reasoningTokens := flags.Int64("reasoning-tokens", 0, "")
	cost := flags.Float64("cost", 0, "required cost in USD")
	_ = flags.Parse(args)

	exitOnError(hub.RecordCost(ctx, domain.CostEntry{
		WorkspaceID:     *workspace,
		Model:           *model,
		InputTokens:     *inputTokens,
		OutputTokens:    *outputTokens,
		CachedTokens:    *cachedTokens,
		ReasoningTokens: *reasoningTokens,
		Cost:            *cost,
	}))
	fmt.Println("recorded")
}

func runCostHistory(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("cost-history", flag.ExitOnError)
	start := flags.String("start", "", "inclusive RFC3339 lower bound")
	end := flags.String("end", "", "inclusive RFC3339 upper bound")
	_ = flags.Parse(args)

	result, err := hub.GetCostHistory(ctx, service.CostRange{Start: *start, End: *end})
	exitOnError(err)
	printJSON(result)
}

func runDailySummaries(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("daily-summaries", flag.ExitOnError)
	start := flags.String("start", "", "inclusive YYYY-MM-DD lower bound")
	end := flags.String("end", "", "inclusive YYYY-MM-DD upper bound")
	_ = flags.Parse(args)

	result, err := hub.GetDailySummaries(ctx, *start, *end)
	exitOnError(err)
	printJSON(result)
}

func runModelBreakdown(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("model-breakdown", flag.ExitOnError)
	start := flags.String("start", "", "inclusive RFC3339 lower bound")
	end := flags.String("end", "", "inclusive RFC3339 upper bound")
	_ = flags.Parse(args)

	result, err := hub.GetModelBreakdown(ctx, service.CostRange{Start: *start, End: *end})
	exitOnError(err)
	printJSON(result)
}

func runPruneCosts(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("prune-costs", flag.ExitOnError)
	days := flags.Int("days", 90, "retention window in days")
	_ = flags.Parse(args)

	removed, err := hub.PruneOldEntries(ctx, *days)
	exitOnError(err)
	fmt.Printf("removed %d entries\n", removed)
}

func runCheckHealth(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("check-health", flag.ExitOnError)
	provider := flags.String("provider", "", "required")
	model := flags.String("model", "", "required")
	metadataJSON := flags.String("metadata", "", "optional JSON object with custom limits/pricing")
	_ = flags.Parse(args)

	var metadata map[string]any
	if *metadataJSON != "" {
		if err := json.Unmarshal([]byte(*metadataJSON), &metadata); err != nil {
			log.Fatalf("invalid -metadata payload: %v", err)
		}
	}

	result, err := hub.CheckModelHealth(ctx, health.CheckRequest{
		Provider: *provider,
		ModelID:  *model,
		Metadata: metadata,
	})
	exitOnError(err)
	printJSON(result)
}

func runImportTheme(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("import-theme", flag.ExitOnError)
	file := flags.String("file", "", "required path to a .vsix archive")
	_ = flags.Parse(args)

	raw, err := os.ReadFile(*file)
	exitOnError(err)
	result, err := hub.ImportIconTheme(ctx, base64.StdEncoding.EncodeToString(raw))
	exitOnError(err)
	printJSON(result)
}

func runDeleteTheme(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("delete-theme", flag.ExitOnError)
	id := flags.String("id", "", "required")
	_ = flags.Parse(args)

	exitOnError(hub.DeleteIconTheme(ctx, *id))
	fmt.Println("deleted")
}

func runListSnippets(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("list-snippets", flag.ExitOnError)
	tag := flags.String("tag", "", "optional tag filter")
	_ = flags.Parse(args)

	result, err := hub.ListSnippets(ctx, *tag)
	exitOnError(err)
	printJSON(result)
}

func runSaveSnippet(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("save-snippet", flag.ExitOnError)
	title := flags.String("title", "", "required")
	language := flags.String("language", "", "optional")
	file := flags.String("file", "", "required path to the snippet body")
	tag := flags.String("tag", "", "optional single tag")
	_ = flags.Parse(args)

	raw, err := os.ReadFile(*file)
	exitOnError(err)

	var tags []string
	if *tag != "" {
		tags = []string{*tag}
	}
	result, err := hub.SaveSnippet(ctx, service.SaveSnippetRequest{
		Title:    *title,
		Language: *language,
		Code:     string(raw),
		Tags:     tags,
	})
	exitOnError(err)
	printJSON(result)
}

func runAddFavorite(ctx context.Context, hub *client.Client, args []string) {
	flags := flag.NewFlagSet("add-favorite", flag.ExitOnError)
	path := flags.String("path", "", "required workspace path")
	label := flags.String("label", "", "optional label")
	_ = flags.Parse(args)

	result, err := hub.AddFavorite(ctx, service.AddFavoriteRequest{Path: *path, Label: *label})
	exitOnError(err)
	printJSON(result)
}

func printJSON(value any) {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		log.Fatalf("encode error: %v", err)
	}
	fmt.Println(string(raw))
}

func exitOnError(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}

func usage() {
	fmt.Println(`deskhub-cli [-addr host:port] [-token value] <command> [flags]

presets:
  list-presets
  get-preset -id <id>
  save-preset -name <name> -models <json> [-description text]
  delete-preset -id <id>
  export-presets [-out file] [id ...]
  import-presets -file <path>

costs:
  record-cost -model <id> -cost <usd> [-workspace id] [token flags]
  cost-history [-start ts] [-end ts]
  daily-summaries [-start date] [-end date]
  model-breakdown [-start ts] [-end ts]
  summary-totals
  prune-costs [-days n]

models:
  check-health -provider <name> -model <id> [-metadata json]

icon themes:
  list-themes
  import-theme -file <path.vsix>
  delete-theme -id <id>

snippets / workspaces:
  list-snippets [-tag t]
  save-snippet -title <t> -file <path> [-language l] [-tag t]
  list-favorites
  add-favorite -path <dir> [-label text]

misc:
  health`)
}
