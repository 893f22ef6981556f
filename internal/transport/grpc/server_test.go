package grpcx

import (
	"context"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/deskhub-app/deskhub/internal/health"
	"github.com/deskhub-app/deskhub/internal/icontheme"
	"github.com/deskhub-app/deskhub/internal/service"
	"github.com/deskhub-app/deskhub/internal/store"
	"github.com/deskhub-app/deskhub/internal/terminal"
)

func newTestHandler(t *testing.T) *DeskHubHandler {
	t.Helper()
	dataDir := t.TempDir()
	factory := store.NewFileFactory(dataDir)
	return NewDeskHubHandler(Services{
		Presets:    service.NewPresetService(factory.Backend("model-presets")),
		Costs:      service.NewCostService(factory.Backend("cost-history")),
		Snippets:   service.NewSnippetService(factory.Backend("snippets")),
		Workspaces: service.NewWorkspaceService(factory.Backend("workspaces")),
		Themes:     icontheme.NewService(factory.Backend("icon-themes"), filepath.Join(dataDir, "icon-themes")),
		Health:     health.NewChecker(filepath.Join(dataDir, "providers.jsonc")),
		Terminals:  terminal.NewManager(),
		DataDir:    dataDir,
	})
}

func mustStruct(t *testing.T, value map[string]any) *structpb.Struct {
	t.Helper()
	out, err := structpb.NewStruct(value)
	if err != nil {
		t.Fatalf("failed to build struct: %v", err)
	}
	return out
}

func TestSavePresetRoundTripsThroughCodec(t *testing.T) {
	handler := newTestHandler(t)

	request := mustStruct(t, map[string]any{
		"name": "wire preset",
		"models": []any{
			map[string]any{"provider": "anthropic", "modelId": "claude-sonnet-4-5"},
		},
	})
	response, err := savePreset(context.Background(), handler, request)
	if err != nil {
		t.Fatalf("savePreset: %v", err)
	}

	saved := response.(*structpb.Struct).AsMap()
	id, _ := saved["id"].(string)
	if id == "" {
		t.Fatalf("response missing id: %+v", saved)
	}

	listed, err := listPresets(context.Background(), handler, mustStruct(t, map[string]any{}))
	if err != nil {
		t.Fatalf("listPresets: %v", err)
	}
	items := listed.(*structpb.ListValue).AsSlice()
	if len(items) != 1 {
		t.Fatalf("expected one preset over the wire, got %d", len(items))
	}

	got, err := getPreset(context.Background(), handler, mustStruct(t, map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("getPreset: %v", err)
	}
	if got.(*structpb.Struct).AsMap()["name"] != "wire preset" {
		t.Fatalf("round trip lost the name")
	}
}

func TestGetPresetUnknownIDFails(t *testing.T) {
	handler := newTestHandler(t)
	if _, err := getPreset(context.Background(), handler, mustStruct(t, map[string]any{"id": "missing"})); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestRecordCostAndSummaryOverCodec(t *testing.T) {
	handler := newTestHandler(t)

	request := mustStruct(t, map[string]any{
		"timestamp":    "2026-08-26T10:00:00Z",
		"workspaceId":  "ws-1",
		"model":        "claude-sonnet-4-5",
		"inputTokens":  1000,
		"outputTokens": 200,
		"cost":         0.42,
	})
	if _, err := recordCost(context.Background(), handler, request); err != nil {
		t.Fatalf("recordCost: %v", err)
	}

	response, err := getDailySummaries(context.Background(), handler, mustStruct(t, map[string]any{}))
	if err != nil {
		t.Fatalf("getDailySummaries: %v", err)
	}
	items := response.(*structpb.ListValue).AsSlice()
	if len(items) != 1 {
		t.Fatalf("expected one summary, got %d", len(items))
	}
	summary := items[0].(map[string]any)
	if summary["date"] != "2026-08-26" {
		t.Fatalf("unexpected summary date: %+v", summary)
	}
}

func TestGetHealthReportsOK(t *testing.T) {
	handler := newTestHandler(t)
	response, err := getHealth(context.Background(), handler, mustStruct(t, map[string]any{}))
	if err != nil {
		t.Fatalf("getHealth: %v", err)
	}
	if response.(*structpb.Struct).AsMap()["status"] != "ok" {
		t.Fatalf("unexpected health payload")
	}
}
