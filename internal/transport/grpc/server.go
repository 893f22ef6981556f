package grpcx

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/health"
	"github.com/deskhub-app/deskhub/internal/icontheme"
	"github.com/deskhub-app/deskhub/internal/rpccontract"
	"github.com/deskhub-app/deskhub/internal/service"
	"github.com/deskhub-app/deskhub/internal/terminal"
)

// Services bundles everything the RPC surface exposes.
type Services struct {
	Presets    *service.PresetService
	Costs      *service.CostService
	Snippets   *service.SnippetService
	Workspaces *service.WorkspaceService
	Themes     *icontheme.Service
	Health     *health.Checker
	Terminals  *terminal.Manager
	DataDir    string
}

type DeskHubHandler struct {
	services Services
}

func NewDeskHubHandler(services Services) *DeskHubHandler {
	return &DeskHubHandler{services: services}
}

// Every method takes a JSON object encoded as structpb.Struct and returns a
// struct or list the same way. Read methods accept an empty object.
type rpcFunc func(ctx context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error)

func methodDesc(name string, fn rpcFunc) grpc.MethodDesc {
	fullMethod := "/" + rpccontract.ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, decoder func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			request := new(structpb.Struct)
			if err := decoder(request); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, srv.(*DeskHubHandler), request)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			wrapped := func(ctx context.Context, req any) (any, error) {
				return fn(ctx, srv.(*DeskHubHandler), req.(*structpb.Struct))
			}
			return interceptor(ctx, request, info, wrapped)
		},
	}
}

func RegisterDeskHubServer(server *grpc.Server, handler *DeskHubHandler) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: rpccontract.ServiceName,
		HandlerType: (*DeskHubHandler)(nil),
		Methods: []grpc.MethodDesc{
			methodDesc("GetHealth", getHealth),

			methodDesc("ListPresets", listPresets),
			methodDesc("GetPreset", getPreset),
			methodDesc("SavePreset", savePreset),
			methodDesc("UpdatePreset", updatePreset),
			methodDesc("DeletePreset", deletePreset),
			methodDesc("ExportPresets", exportPresets),
			methodDesc("ImportPresets", importPresets),

			methodDesc("RecordCost", recordCost),
			methodDesc("GetCostHistory", getCostHistory),
			methodDesc("GetDailySummaries", getDailySummaries),
			methodDesc("GetModelBreakdown", getModelBreakdown),
			methodDesc("PruneOldEntries", pruneOldEntries),
			methodDesc("GetSummaryTotals", getSummaryTotals),

			methodDesc("CheckModelHealth", checkModelHealth),
			methodDesc("GetCachedHealth", getCachedHealth),

			methodDesc("ListIconThemes", listIconThemes),
			methodDesc("GetActiveIconTheme", getActiveIconTheme),
			methodDesc("SetActiveIconTheme", setActiveIconTheme),
			methodDesc("ImportIconTheme", importIconTheme),
			methodDesc("DeleteIconTheme", deleteIconTheme),
			methodDesc("GetIconFile", getIconFile),

			methodDesc("ListSnippets", listSnippets),
			methodDesc("GetSnippet", getSnippet),
			methodDesc("SaveSnippet", saveSnippet),
			methodDesc("UpdateSnippet", updateSnippet),
			methodDesc("DeleteSnippet", deleteSnippet),

			methodDesc("ListFavorites", listFavorites),
			methodDesc("AddFavorite", addFavorite),
			methodDesc("RemoveFavorite", removeFavorite),
			methodDesc("ListTemplates", listTemplates),
			methodDesc("GetTemplate", getTemplate),
			methodDesc("SaveTemplate", saveTemplate),
			methodDesc("UpdateTemplate", updateTemplate),
			methodDesc("DeleteTemplate", deleteTemplate),

			methodDesc("CreateTerminal", createTerminal),
			methodDesc("ListTerminals", listTerminals),
			methodDesc("TerminalWrite", terminalWrite),
			methodDesc("TerminalRead", terminalRead),
			methodDesc("TerminalResize", terminalResize),
			methodDesc("TerminalClose", terminalClose),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "proto/deskhub/v1/deskhub.proto",
	}, handler)
}

func getHealth(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toStruct(map[string]any{
		"status":   "ok",
		"dataDir":  h.services.DataDir,
		"timeUtc":  time.Now().UTC().Format(time.RFC3339Nano),
		"sessions": len(h.services.Terminals.List()),
	})
}

func listPresets(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toList(h.services.Presets.List())
}

func getPreset(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	preset, err := h.services.Presets.Get(decoded.ID)
	if err != nil {
		return nil, err
	}
	return toStruct(preset)
}

func savePreset(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.SavePresetRequest](request)
	if err != nil {
		return nil, err
	}
	preset, err := h.services.Presets.Save(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(preset)
}

func updatePreset(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.UpdatePresetRequest](request)
	if err != nil {
		return nil, err
	}
	preset, err := h.services.Presets.Update(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(preset)
}

func deletePreset(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Presets.Delete(decoded.ID); err != nil {
		return nil, err
	}
	return okStruct()
}

func exportPresets(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[exportRequest](request)
	if err != nil {
		return nil, err
	}
	payload, err := h.services.Presets.Export(decoded.IDs)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"json": payload})
}

func importPresets(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[importRequest](request)
	if err != nil {
		return nil, err
	}
	imported, err := h.services.Presets.Import(decoded.JSON)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"imported": len(imported)})
}

func recordCost(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[domain.CostEntry](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Costs.RecordCost(decoded); err != nil {
		return nil, err
	}
	return okStruct()
}

func getCostHistory(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.CostRange](request)
	if err != nil {
		return nil, err
	}
	return toList(h.services.Costs.History(&decoded))
}

func getDailySummaries(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[dateRangeRequest](request)
	if err != nil {
		return nil, err
	}
	return toList(h.services.Costs.DailySummaries(decoded.StartDate, decoded.EndDate))
}

func getModelBreakdown(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.CostRange](request)
	if err != nil {
		return nil, err
	}
	return toList(h.services.Costs.ModelBreakdown(&decoded))
}

func pruneOldEntries(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[pruneRequest](request)
	if err != nil {
		return nil, err
	}
	removed, err := h.services.Costs.PruneOldEntries(decoded.RetentionDays)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"removed": removed})
}

func getSummaryTotals(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toStruct(h.services.Costs.SummaryTotals())
}

func checkModelHealth(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[modelHealthRequest](request)
	if err != nil {
		return nil, err
	}
	if decoded.Provider == "" || decoded.ModelID == "" {
		return nil, domain.InvalidArgument("provider and modelId are required")
	}
	return toStruct(h.services.Health.Check(decoded.Provider, decoded.ModelID, decoded.Metadata))
}

func getCachedHealth(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[modelHealthRequest](request)
	if err != nil {
		return nil, err
	}
	report, ok := h.services.Health.Cached(decoded.Provider, decoded.ModelID)
	if !ok {
		return nil, domain.NotFound("no cached health report for this model")
	}
	return toStruct(report)
}

func listIconThemes(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toList(h.services.Themes.List())
}

func getActiveIconTheme(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toStruct(map[string]any{"activeTheme": h.services.Themes.ActiveTheme()})
}

func setActiveIconTheme(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Themes.SetActive(decoded.ID); err != nil {
		return nil, err
	}
	return okStruct()
}

func importIconTheme(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[importThemeRequest](request)
	if err != nil {
		return nil, err
	}
	result, err := h.services.Themes.ImportVsix(decoded.Data)
	if err != nil {
		return nil, err
	}
	return toStruct(result)
}

func deleteIconTheme(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Themes.Delete(decoded.ID); err != nil {
		return nil, err
	}
	return okStruct()
}

func getIconFile(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[iconFileRequest](request)
	if err != nil {
		return nil, err
	}
	resolved, ok := h.services.Themes.IconFile(decoded.ThemeID, decoded.Path)
	if !ok {
		return nil, domain.NotFound("icon not found")
	}
	return toStruct(map[string]any{"path": resolved})
}

func listSnippets(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[snippetFilterRequest](request)
	if err != nil {
		return nil, err
	}
	return toList(h.services.Snippets.List(decoded.Tag))
}

func getSnippet(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	snippet, err := h.services.Snippets.Get(decoded.ID)
	if err != nil {
		return nil, err
	}
	return toStruct(snippet)
}

func saveSnippet(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.SaveSnippetRequest](request)
	if err != nil {
		return nil, err
	}
	snippet, err := h.services.Snippets.Save(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(snippet)
}

func updateSnippet(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.UpdateSnippetRequest](request)
	if err != nil {
		return nil, err
	}
	snippet, err := h.services.Snippets.Update(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(snippet)
}

func deleteSnippet(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Snippets.Delete(decoded.ID); err != nil {
		return nil, err
	}
	return okStruct()
}

func listFavorites(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toList(h.services.Workspaces.ListFavorites())
}

func addFavorite(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.AddFavoriteRequest](request)
	if err != nil {
		return nil, err
	}
	favorite, err := h.services.Workspaces.AddFavorite(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(favorite)
}

func removeFavorite(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[pathRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Workspaces.RemoveFavorite(decoded.Path); err != nil {
		return nil, err
	}
	return okStruct()
}

func listTemplates(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toList(h.services.Workspaces.ListTemplates())
}

func getTemplate(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	template, err := h.services.Workspaces.GetTemplate(decoded.ID)
	if err != nil {
		return nil, err
	}
	return toStruct(template)
}

func saveTemplate(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.SaveTemplateRequest](request)
	if err != nil {
		return nil, err
	}
	template, err := h.services.Workspaces.SaveTemplate(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(template)
}

func updateTemplate(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[service.UpdateTemplateRequest](request)
	if err != nil {
		return nil, err
	}
	template, err := h.services.Workspaces.UpdateTemplate(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(template)
}

func deleteTemplate(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Workspaces.DeleteTemplate(decoded.ID); err != nil {
		return nil, err
	}
	return okStruct()
}

func createTerminal(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	id, err := h.services.Terminals.Create()
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"id": id})
}

func listTerminals(_ context.Context, h *DeskHubHandler, _ *structpb.Struct) (proto.Message, error) {
	return toList(h.services.Terminals.List())
}

func terminalWrite(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[terminalDataRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Terminals.Write(decoded.ID, []byte(decoded.Data)); err != nil {
		return nil, err
	}
	return okStruct()
}

func terminalRead(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	output, err := h.services.Terminals.Read(decoded.ID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"data": string(output)})
}

func terminalResize(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[terminalResizeRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Terminals.Resize(decoded.ID, decoded.Cols, decoded.Rows); err != nil {
		return nil, err
	}
	return okStruct()
}

func terminalClose(_ context.Context, h *DeskHubHandler, request *structpb.Struct) (proto.Message, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	if err := h.services.Terminals.Close(decoded.ID); err != nil {
		return nil, err
	}
	return okStruct()
}

type idRequest struct {
	ID string `json:"id"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type exportRequest struct {
	IDs []string `json:"ids"`
}

type importRequest struct {
	JSON string `json:"json"`
}

type dateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type pruneRequest struct {
	RetentionDays int `json:"retentionDays"`
}

type modelHealthRequest struct {
	Provider string         `json:"provider"`
	ModelID  string         `json:"modelId"`
	Metadata map[string]any `json:"metadata"`
}

type importThemeRequest struct {
	Data string `json:"data"`
}

type iconFileRequest struct {
	ThemeID string `json:"themeId"`
	Path    string `json:"path"`
}

type snippetFilterRequest struct {
	Tag string `json:"tag"`
}

type terminalDataRequest struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

type terminalResizeRequest struct {
	ID   string `json:"id"`
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

func okStruct() (*structpb.Struct, error) {
	return toStruct(map[string]any{"ok": true})
}

func toStruct(value any) (*structpb.Struct, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, domain.Internal("failed to encode response", err)
	}

	decoded := map[string]any{}
	if err := json.Unmarshal(serialized, &decoded); err != nil {
		return nil, domain.Internal("failed to shape response object", err)
	}
	result, err := structpb.NewStruct(decoded)
	if err != nil {
		return nil, domain.Internal("failed to convert response to protobuf struct", err)
	}
	return result, nil
}

func toList(value any) (*structpb.ListValue, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, domain.Internal("failed to encode response list", err)
	}

	decoded := []any{}
	if err := json.Unmarshal(serialized, &decoded); err != nil {
		return nil, domain.Internal("failed to shape response list", err)
	}
	result, err := structpb.NewList(decoded)
	if err != nil {
		return nil, domain.Internal("failed to convert response to protobuf list", err)
	}
	return result, nil
}

func decodeStruct[T any](input *structpb.Struct) (T, error) {
	var out T
	serialized, err := json.Marshal(input.AsMap())
	if err != nil {
		return out, domain.InvalidArgument("request payload could not be encoded")
	}
	if err := json.Unmarshal(serialized, &out); err != nil {
		return out, domain.InvalidArgument("request payload shape is invalid")
	}
	return out, nil
}
