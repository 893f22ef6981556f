package rpccontract

const (
	ServiceName = "deskhub.v1.DeskHub"
)

const (
	MethodGetHealth = "/" + ServiceName + "/GetHealth"

	MethodListPresets   = "/" + ServiceName + "/ListPresets"
	MethodGetPreset     = "/" + ServiceName + "/GetPreset"
	MethodSavePreset    = "/" + ServiceName + "/SavePreset"
	MethodUpdatePreset  = "/" + ServiceName + "/UpdatePreset"
	MethodDeletePreset  = "/" + ServiceName + "/DeletePreset"
	MethodExportPresets = "/" + ServiceName + "/ExportPresets"
	MethodImportPresets = "/" + ServiceName + "/ImportPresets"

	MethodRecordCost        = "/" + ServiceName + "/RecordCost"
	MethodGetCostHistory    = "/" + ServiceName + "/GetCostHistory"
	MethodGetDailySummaries = "/" + ServiceName + "/GetDailySummaries"
	MethodGetModelBreakdown = "/" + ServiceName + "/GetModelBreakdown"
	MethodPruneOldEntries   = "/" + ServiceName + "/PruneOldEntries"
	MethodGetSummaryTotals  = "/" + ServiceName + "/GetSummaryTotals"

	MethodCheckModelHealth = "/" + ServiceName + "/CheckModelHealth"
	MethodGetCachedHealth  = "/" + ServiceName + "/GetCachedHealth"

	MethodListIconThemes     = "/" + ServiceName + "/ListIconThemes"
	MethodGetActiveIconTheme = "/" + ServiceName + "/GetActiveIconTheme"
	MethodSetActiveIconTheme = "/" + ServiceName + "/SetActiveIconTheme"
	MethodImportIconTheme    = "/" + ServiceName + "/ImportIconTheme"
	MethodDeleteIconTheme    = "/" + ServiceName + "/DeleteIconTheme"
	MethodGetIconFile        = "/" + ServiceName + "/GetIconFile"

	MethodListSnippets  = "/" + ServiceName + "/ListSnippets"
	MethodGetSnippet    = "/" + ServiceName + "/GetSnippet"
	MethodSaveSnippet   = "/" + ServiceName + "/SaveSnippet"
	MethodUpdateSnippet = "/" + ServiceName + "/UpdateSnippet"
	MethodDeleteSnippet = "/" + ServiceName + "/DeleteSnippet"

	MethodListFavorites  = "/" + ServiceName + "/ListFavorites"
	MethodAddFavorite    = "/" + ServiceName + "/AddFavorite"
	MethodRemoveFavorite = "/" + ServiceName + "/RemoveFavorite"
	MethodListTemplates  = "/" + ServiceName + "/ListTemplates"
	MethodGetTemplate    = "/" + ServiceName + "/GetTemplate"
	MethodSaveTemplate   = "/" + ServiceName + "/SaveTemplate"
	MethodUpdateTemplate = "/" + ServiceName + "/UpdateTemplate"
	MethodDeleteTemplate = "/" + ServiceName + "/DeleteTemplate"

	MethodCreateTerminal = "/" + ServiceName + "/CreateTerminal"
	MethodListTerminals  = "/" + ServiceName + "/ListTerminals"
	MethodTerminalWrite  = "/" + ServiceName + "/TerminalWrite"
	MethodTerminalRead   = "/" + ServiceName + "/TerminalRead"
	MethodTerminalResize = "/" + ServiceName + "/TerminalResize"
	MethodTerminalClose  = "/" + ServiceName + "/TerminalClose"
)

// WriteMethods lists every method that mutates state. The auth interceptor
// requires a token for these and lets reads through.
var WriteMethods = map[string]struct{}{
	MethodSavePreset:    {},
	MethodUpdatePreset:  {},
	MethodDeletePreset:  {},
	MethodImportPresets: {},

	MethodRecordCost:      {},
	MethodPruneOldEntries: {},

	MethodSetActiveIconTheme: {},
	MethodImportIconTheme:    {},
	MethodDeleteIconTheme:    {},

	MethodSaveSnippet:   {},
	MethodUpdateSnippet: {},
	MethodDeleteSnippet: {},

	MethodAddFavorite:    {},
	MethodRemoveFavorite: {},
	MethodSaveTemplate:   {},
	MethodUpdateTemplate: {},
	MethodDeleteTemplate: {},

	MethodCreateTerminal: {},
	MethodTerminalWrite:  {},
	MethodTerminalResize: {},
	MethodTerminalClose:  {},
}
