package dto

import (
	"strings"
	"time"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	csvimport "github.com/hyperpc/marketsync/internal/infrastructure/import"
)

// UploadItem is one stock row of a bulk upload
type UploadItem struct {
	SKU       string `json:"sku" binding:"required,max=64"`
	Quantity  int    `json:"quantity" binding:"gte=0,lte=1000000"`
	Warehouse string `json:"warehouse,omitempty" binding:"omitempty,max=64"`
}

// StartRunRequest starts a bulk sync run from a JSON body.
// Empty targets fall back to the configured default targets.
type StartRunRequest struct {
	Items   []UploadItem `json:"items" binding:"required,min=1,dive"`
	Targets []string     `json:"targets" binding:"omitempty,dive,required"`
}

// ToBatch converts the request items to the bulk sync batch, trimming SKU
// and warehouse. Items whose SKU is blank after trimming are reported by
// 1-based position and leave the batch nil.
func (r *StartRunRequest) ToBatch() ([]integration.BulkUploadItem, []ValidationDetail) {
	out := make([]integration.BulkUploadItem, len(r.Items))
	var details []ValidationDetail
	for i, it := range r.Items {
		sku := strings.TrimSpace(it.SKU)
		if sku == "" {
			details = append(details, ValidationDetail{Field: "sku", Message: "This field is required", Row: i + 1, Value: it.SKU})
			continue
		}
		out[i] = integration.BulkUploadItem{SKU: sku, Quantity: it.Quantity, Warehouse: strings.TrimSpace(it.Warehouse)}
	}
	if len(details) > 0 {
		return nil, details
	}
	return out, nil
}

// RowErrorResponse is one problem found in an uploaded file
type RowErrorResponse struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// PreviewResponse is the parsed content of an upload, without starting a run
type PreviewResponse struct {
	TotalRows   int                `json:"total_rows"`
	ValidRows   int                `json:"valid_rows"`
	Items       []UploadItem       `json:"items"`
	Errors      []RowErrorResponse `json:"errors"`
	TotalErrors int                `json:"total_errors"`
	IsTruncated bool               `json:"is_truncated,omitempty"`
}

// NewPreviewResponse converts a parsed upload
func NewPreviewResponse(u *csvimport.Upload) PreviewResponse {
	resp := PreviewResponse{
		TotalRows:   u.Rows,
		ValidRows:   len(u.Items),
		Items:       make([]UploadItem, len(u.Items)),
		Errors:      make([]RowErrorResponse, len(u.Errors)),
		TotalErrors: u.TotalErrors,
		IsTruncated: u.Truncated,
	}
	for i, it := range u.Items {
		resp.Items[i] = UploadItem{SKU: it.SKU, Quantity: it.Quantity, Warehouse: it.Warehouse}
	}
	for i, e := range u.Errors {
		resp.Errors[i] = RowErrorResponse{Row: e.Row, Column: e.Column, Code: e.Code, Message: e.Message, Value: e.Value}
	}
	return resp
}

// ValidationDetails converts upload row errors to response details
func ValidationDetails(errs []csvimport.RowError) []ValidationDetail {
	out := make([]ValidationDetail, len(errs))
	for i, e := range errs {
		out[i] = ValidationDetail{Field: e.Column, Message: e.Error(), Row: e.Row, Value: e.Value}
	}
	return out
}

// SyncErrorResponse is one failed stock update
type SyncErrorResponse struct {
	SKU         string `json:"sku"`
	Marketplace string `json:"marketplace"`
	Error       string `json:"error"`
}

// SyncResultResponse is the final aggregate of a completed run
type SyncResultResponse struct {
	Total     int                 `json:"total"`
	Processed int                 `json:"processed"`
	Success   int                 `json:"success"`
	Failed    int                 `json:"failed"`
	Errors    []SyncErrorResponse `json:"errors"`
}

// SyncStatusResponse is the bulk sync status read model
type SyncStatusResponse struct {
	RunID          string              `json:"run_id,omitempty"`
	IsProcessing   bool                `json:"is_processing"`
	Cancelled      bool                `json:"cancelled"`
	Progress       int                 `json:"progress"`
	TotalItems     int                 `json:"total_items"`
	ProcessedItems int                 `json:"processed_items"`
	CurrentItem    string              `json:"current_item"`
	Targets        []string            `json:"targets"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
	Result         *SyncResultResponse `json:"result"`
	Errors         []string            `json:"errors"`
}

// NewSyncStatusResponse converts an orchestrator status snapshot
func NewSyncStatusResponse(s bulksync.Status) SyncStatusResponse {
	resp := SyncStatusResponse{
		RunID:          s.RunID,
		IsProcessing:   s.IsProcessing,
		Cancelled:      s.Cancelled,
		Progress:       s.Progress,
		TotalItems:     s.TotalItems,
		ProcessedItems: s.ProcessedItems,
		CurrentItem:    s.CurrentItem,
		Targets:        marketplaceStrings(s.Targets),
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
		Errors:         s.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	if s.Result != nil {
		resp.Result = NewSyncResultResponse(*s.Result)
	}
	return resp
}

// NewSyncResultResponse converts a bulk upload result
func NewSyncResultResponse(r integration.BulkUploadResult) *SyncResultResponse {
	out := &SyncResultResponse{
		Total:     r.Total,
		Processed: r.Processed,
		Success:   r.Success,
		Failed:    r.Failed,
		Errors:    make([]SyncErrorResponse, len(r.Errors)),
	}
	for i, e := range r.Errors {
		out.Errors[i] = SyncErrorResponse{SKU: e.SKU, Marketplace: string(e.Marketplace), Error: e.Error}
	}
	return out
}

func marketplaceStrings(ids []integration.MarketplaceID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
