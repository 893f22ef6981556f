package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/health"
	"github.com/deskhub-app/deskhub/internal/icontheme"
	"github.com/deskhub-app/deskhub/internal/rpccontract"
	"github.com/deskhub-app/deskhub/internal/service"
)

// Client is the typed wrapper over the structpb wire protocol. All methods
// retry transient transport failures with linear backoff.
type Client struct {
	conn          *grpc.ClientConn
	token         string
	requestTO     time.Duration
	retryAttempts int
}

type Options struct {
	Addr           string
	Token          string
	Insecure       bool
	RequestTimeout time.Duration
	RetryAttempts  int
}

func New(opts Options) (*Client, error) {
	cred := grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}))
	if opts.Insecure || strings.HasPrefix(opts.Addr, "127.0.0.1:") || strings.HasPrefix(opts.Addr, "localhost:") {
		cred = grpc.WithTransportCredentials(insecure.NewCredentials())
	}

	conn, err := grpc.NewClient(
		opts.Addr,
		cred,
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                25 * time.Second,
			Timeout:             6 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Addr, err)
	}
	conn.Connect()

	requestTO := opts.RequestTimeout
	if requestTO <= 0 {
		requestTO = 10 * time.Second
	}
	return &Client{
		conn:          conn,
		token:         strings.TrimSpace(opts.Token),
		requestTO:     requestTO,
		retryAttempts: opts.RetryAttempts,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) GetHealth(ctx context.Context) (map[string]any, error) {
	return c.invokeStruct(ctx, rpccontract.MethodGetHealth, nil)
}

func (c *Client) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	return invokeListAs[domain.Preset](c, ctx, rpccontract.MethodListPresets, nil)
}

func (c *Client) GetPreset(ctx context.Context, id string) (domain.Preset, error) {
	return invokeStructAs[domain.Preset](c, ctx, rpccontract.MethodGetPreset, map[string]any{"id": id})
}

func (c *Client) SavePreset(ctx context.Context, request service.SavePresetRequest) (domain.Preset, error) {
	return invokeStructAs[domain.Preset](c, ctx, rpccontract.MethodSavePreset, toPayload(request))
}

func (c *Client) UpdatePreset(ctx context.Context, request service.UpdatePresetRequest) (domain.Preset, error) {
	return invokeStructAs[domain.Preset](c, ctx, rpccontract.MethodUpdatePreset, toPayload(request))
}

func (c *Client) DeletePreset(ctx context.Context, id string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodDeletePreset, map[string]any{"id": id})
	return err
}

func (c *Client) ExportPresets(ctx context.Context, ids []string) (string, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodExportPresets, map[string]any{"ids": toAnySlice(ids)})
	if err != nil {
		return "", err
	}
	payload, _ := response["json"].(string)
	return payload, nil
}

func (c *Client) ImportPresets(ctx context.Context, payload string) (int, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodImportPresets, map[string]any{"json": payload})
	if err != nil {
		return 0, err
	}
	imported, _ := response["imported"].(float64)
	return int(imported), nil
}

func (c *Client) RecordCost(ctx context.Context, entry domain.CostEntry) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodRecordCost, toPayload(entry))
	return err
}

func (c *Client) GetCostHistory(ctx context.Context, costRange service.CostRange) ([]domain.CostEntry, error) {
	return invokeListAs[domain.CostEntry](c, ctx, rpccontract.MethodGetCostHistory, toPayload(costRange))
}

func (c *Client) GetDailySummaries(ctx context.Context, startDate, endDate string) ([]domain.DatedSummary, error) {
	return invokeListAs[domain.DatedSummary](c, ctx, rpccontract.MethodGetDailySummaries, map[string]any{
		"startDate": startDate,
		"endDate":   endDate,
	})
}

func (c *Client) GetModelBreakdown(ctx context.Context, costRange service.CostRange) ([]domain.ModelBreakdown, error) {
	return invokeListAs[domain.ModelBreakdown](c, ctx, rpccontract.MethodGetModelBreakdown, toPayload(costRange))
}

func (c *Client) PruneOldEntries(ctx context.Context, retentionDays int) (int, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodPruneOldEntries, map[string]any{"retentionDays": retentionDays})
	if err != nil {
		return 0, err
	}
	removed, _ := response["removed"].(float64)
	return int(removed), nil
}

func (c *Client) GetSummaryTotals(ctx context.Context) (domain.SummaryTotals, error) {
	return invokeStructAs[domain.SummaryTotals](c, ctx, rpccontract.MethodGetSummaryTotals, nil)
}

func (c *Client) CheckModelHealth(ctx context.Context, request health.CheckRequest) (domain.HealthReport, error) {
	return invokeStructAs[domain.HealthReport](c, ctx, rpccontract.MethodCheckModelHealth, toPayload(request))
}

func (c *Client) GetCachedHealth(ctx context.Context, provider, modelID string) (domain.HealthReport, error) {
	return invokeStructAs[domain.HealthReport](c, ctx, rpccontract.MethodGetCachedHealth, map[string]any{
		"provider": provider,
		"modelId":  modelID,
	})
}

func (c *Client) ListIconThemes(ctx context.Context) ([]domain.IconTheme, error) {
	return invokeListAs[domain.IconTheme](c, ctx, rpccontract.MethodListIconThemes, nil)
}

func (c *Client) SetActiveIconTheme(ctx context.Context, id string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodSetActiveIconTheme, map[string]any{"id": id})
	return err
}

func (c *Client) ImportIconTheme(ctx context.Context, base64Vsix string) (icontheme.ImportResult, error) {
	return invokeStructAs[icontheme.ImportResult](c, ctx, rpccontract.MethodImportIconTheme, map[string]any{"data": base64Vsix})
}

func (c *Client) DeleteIconTheme(ctx context.Context, id string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodDeleteIconTheme, map[string]any{"id": id})
	return err
}

func (c *Client) GetActiveIconTheme(ctx context.Context) (string, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodGetActiveIconTheme, nil)
	if err != nil {
		return "", err
	}
	active, _ := response["activeTheme"].(string)
	return active, nil
}

func (c *Client) GetIconFile(ctx context.Context, themeID, iconPath string) (string, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodGetIconFile, map[string]any{
		"themeId": themeID,
		"path":    iconPath,
	})
	if err != nil {
		return "", err
	}
	resolved, _ := response["path"].(string)
	return resolved, nil
}

func (c *Client) ListSnippets(ctx context.Context, tag string) ([]domain.Snippet, error) {
	return invokeListAs[domain.Snippet](c, ctx, rpccontract.MethodListSnippets, map[string]any{"tag": tag})
}

func (c *Client) SaveSnippet(ctx context.Context, request service.SaveSnippetRequest) (domain.Snippet, error) {
	return invokeStructAs[domain.Snippet](c, ctx, rpccontract.MethodSaveSnippet, toPayload(request))
}

func (c *Client) GetSnippet(ctx context.Context, id string) (domain.Snippet, error) {
	return invokeStructAs[domain.Snippet](c, ctx, rpccontract.MethodGetSnippet, map[string]any{"id": id})
}

func (c *Client) UpdateSnippet(ctx context.Context, request service.UpdateSnippetRequest) (domain.Snippet, error) {
	return invokeStructAs[domain.Snippet](c, ctx, rpccontract.MethodUpdateSnippet, toPayload(request))
}

func (c *Client) DeleteSnippet(ctx context.Context, id string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodDeleteSnippet, map[string]any{"id": id})
	return err
}

func (c *Client) ListFavorites(ctx context.Context) ([]domain.WorkspaceFavorite, error) {
	return invokeListAs[domain.WorkspaceFavorite](c, ctx, rpccontract.MethodListFavorites, nil)
}

func (c *Client) AddFavorite(ctx context.Context, request service.AddFavoriteRequest) (domain.WorkspaceFavorite, error) {
	return invokeStructAs[domain.WorkspaceFavorite](c, ctx, rpccontract.MethodAddFavorite, toPayload(request))
}

func (c *Client) RemoveFavorite(ctx context.Context, path string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodRemoveFavorite, map[string]any{"path": path})
	return err
}

func (c *Client) ListTemplates(ctx context.Context) ([]domain.WorkspaceTemplate, error) {
	return invokeListAs[domain.WorkspaceTemplate](c, ctx, rpccontract.MethodListTemplates, nil)
}

func (c *Client) SaveTemplate(ctx context.Context, request service.SaveTemplateRequest) (domain.WorkspaceTemplate, error) {
	return invokeStructAs[domain.WorkspaceTemplate](c, ctx, rpccontract.MethodSaveTemplate, toPayload(request))
}

func (c *Client) UpdateTemplate(ctx context.Context, request service.UpdateTemplateRequest) (domain.WorkspaceTemplate, error) {
	return invokeStructAs[domain.WorkspaceTemplate](c, ctx, rpccontract.MethodUpdateTemplate, toPayload(request))
}

func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodDeleteTemplate, map[string]any{"id": id})
	return err
}

func (c *Client) CreateTerminal(ctx context.Context) (string, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodCreateTerminal, nil)
	if err != nil {
		return "", err
	}
	id, _ := response["id"].(string)
	return id, nil
}

func (c *Client) ListTerminals(ctx context.Context) ([]string, error) {
	return invokeListAs[string](c, ctx, rpccontract.MethodListTerminals, nil)
}

func (c *Client) TerminalWrite(ctx context.Context, id string, data []byte) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodTerminalWrite, map[string]any{"id": id, "data": string(data)})
	return err
}

func (c *Client) TerminalRead(ctx context.Context, id string) ([]byte, error) {
	response, err := c.invokeStruct(ctx, rpccontract.MethodTerminalRead, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	data, _ := response["data"].(string)
	return []byte(data), nil
}

func (c *Client) TerminalResize(ctx context.Context, id string, cols, rows uint16) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodTerminalResize, map[string]any{
		"id":   id,
		"cols": int(cols),
		"rows": int(rows),
	})
	return err
}

func (c *Client) TerminalClose(ctx context.Context, id string) error {
	_, err := c.invokeStruct(ctx, rpccontract.MethodTerminalClose, map[string]any{"id": id})
	return err
}

func invokeStructAs[T any](c *Client, ctx context.Context, method string, payload map[string]any) (T, error) {
	var out T
	response, err := c.invokeStruct(ctx, method, payload)
	if err != nil {
		return out, err
	}
	return decodeAs[T](response)
}

func invokeListAs[T any](c *Client, ctx context.Context, method string, payload map[string]any) ([]T, error) {
	response, err := c.invokeList(ctx, method, payload)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(response))
	for _, item := range response {
		decoded, err := decodeAs[T](item)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func (c *Client) invokeStruct(ctx context.Context, method string, payload map[string]any) (map[string]any, error) {
	response := &structpb.Struct{}
	if err := c.invoke(ctx, method, payload, response); err != nil {
		return nil, err
	}
	return response.AsMap(), nil
}

func (c *Client) invokeList(ctx context.Context, method string, payload map[string]any) ([]any, error) {
	response := &structpb.ListValue{}
	if err := c.invoke(ctx, method, payload, response); err != nil {
		return nil, err
	}
	return response.AsSlice(), nil
}

func (c *Client) invoke(ctx context.Context, method string, payload map[string]any, response any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	request, err := structpb.NewStruct(payload)
	if err != nil {
		return err
	}

	attempts := c.retryAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.requestTO)
		callCtx = c.withAuth(callCtx)

		invokeErr := c.conn.Invoke(callCtx, method, request, response)
		cancel()
		if invokeErr == nil {
			return nil
		}
		lastErr = invokeErr
		if !isRetryable(invokeErr) || attempt == attempts {
			break
		}
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
	return lastErr
}

func (c *Client) withAuth(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "x-deskhub-token", c.token)
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// toPayload flattens a request struct into the map form structpb accepts.
func toPayload(value any) map[string]any {
	raw, err := json.Marshal(value)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func decodeAs[T any](value any) (T, error) {
	var out T
	raw, err := json.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("encode response: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func toAnySlice(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
