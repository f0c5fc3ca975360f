package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	csvimport "github.com/hyperpc/marketsync/internal/infrastructure/import"
	"github.com/hyperpc/marketsync/internal/infrastructure/logger"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
)

// SyncService is the bulk sync orchestrator as seen by the HTTP layer
type SyncService interface {
	Start(ctx context.Context, batch []integration.BulkUploadItem, targets []integration.MarketplaceID) (*bulksync.Run, error)
	Cancel(ctx context.Context) error
	Reset() (bulksync.Status, error)
	Status() bulksync.Status
	Subscribe() (<-chan bulksync.Status, func())
}

// SyncHandler serves bulk stock sync runs
type SyncHandler struct {
	BaseHandler
	sync           SyncService
	uploads        *csvimport.UploadValidator
	defaultTargets []integration.MarketplaceID
	heartbeat      time.Duration
}

// SyncHandlerOption configures a SyncHandler
type SyncHandlerOption func(*SyncHandler)

// WithDefaultTargets sets the targets used when a request names none
func WithDefaultTargets(targets []integration.MarketplaceID) SyncHandlerOption {
	return func(h *SyncHandler) {
		if len(targets) > 0 {
			h.defaultTargets = targets
		}
	}
}

// WithHeartbeat sets the heartbeat interval of the events stream
func WithHeartbeat(interval time.Duration) SyncHandlerOption {
	return func(h *SyncHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// NewSyncHandler creates a SyncHandler. Without WithDefaultTargets every
// sales channel is targeted.
func NewSyncHandler(sync SyncService, uploads *csvimport.UploadValidator, opts ...SyncHandlerOption) *SyncHandler {
	if uploads == nil {
		uploads = csvimport.NewUploadValidator(csvimport.DefaultUploadOptions())
	}
	h := &SyncHandler{
		sync:           sync,
		uploads:        uploads,
		defaultTargets: integration.SalesChannels(),
		heartbeat:      15 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Preview parses an uploaded CSV and reports its rows and errors without starting a run.
// POST /sync/preview
func (h *SyncHandler) Preview(c *gin.Context) {
	upload, err := h.parseUpload(c)
	if err != nil {
		h.handleUploadError(c, err)
		return
	}
	h.Success(c, dto.NewPreviewResponse(upload))
}

// StartRun starts a bulk sync run from a JSON body or a CSV upload.
// POST /sync/runs
func (h *SyncHandler) StartRun(c *gin.Context) {
	var (
		batch   []integration.BulkUploadItem
		targets []string
	)

	if c.ContentType() == "application/json" {
		var req dto.StartRunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		items, details := req.ToBatch()
		if len(details) > 0 {
			h.ValidationError(c, "Upload has invalid items", details)
			return
		}
		batch, targets = items, req.Targets
	} else {
		upload, err := h.parseUpload(c)
		if err != nil {
			h.handleUploadError(c, err)
			return
		}
		if upload.TotalErrors > 0 {
			h.ValidationError(c, "Upload has invalid rows", dto.ValidationDetails(upload.Errors))
			return
		}
		batch = upload.Items
	}
	if len(targets) == 0 {
		targets = queryTargets(c)
	}

	ids, err := h.resolveTargets(targets)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	run, err := h.sync.Start(c.Request.Context(), batch, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("Bulk sync run accepted",
		zap.String("run_id", run.ID),
		zap.Int("items", len(batch)),
		zap.Stringers("targets", ids),
	)
	c.Header("Location", "/api/v1/sync/status")
	h.Accepted(c, dto.NewSyncStatusResponse(run.Status()))
}

// GetStatus returns the status of the current or last run.
// GET /sync/status
func (h *SyncHandler) GetStatus(c *gin.Context) {
	h.Success(c, dto.NewSyncStatusResponse(h.sync.Status()))
}

// Cancel cancels the run in progress and waits for it to stop.
// POST /sync/cancel
func (h *SyncHandler) Cancel(c *gin.Context) {
	if err := h.sync.Cancel(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSyncStatusResponse(h.sync.Status()))
}

// Reset clears the last run.
// POST /sync/reset
func (h *SyncHandler) Reset(c *gin.Context) {
	status, err := h.sync.Reset()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSyncStatusResponse(status))
}

// Events streams status snapshots as server-sent events until the client
// disconnects or the orchestrator shuts down.
// GET /sync/events
func (h *SyncHandler) Events(c *gin.Context) {
	updates, unsubscribe := h.sync.Subscribe()
	defer unsubscribe()

	log := logger.GetGinLogger(c)
	prepareSSE(c)

	connected, _ := newSSEMessage(SSEEventConnected, "", gin.H{"timestamp": time.Now().Unix()})
	if err := writeSSE(c, connected); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Sync events client disconnected")
			return
		case <-ticker.C:
			hb, _ := newSSEMessage(SSEEventHeartbeat, "", gin.H{"timestamp": time.Now().Unix()})
			if err := writeSSE(c, hb); err != nil {
				return
			}
		case status, ok := <-updates:
			if !ok {
				log.Debug("Sync events stream closed by orchestrator")
				return
			}
			msg, err := newSSEMessage(SSEEventStatus, statusEventID(status), dto.NewSyncStatusResponse(status))
			if err != nil {
				log.Error("Failed to encode sync status event", zap.Error(err))
				continue
			}
			if err := writeSSE(c, msg); err != nil {
				return
			}
		}
	}
}

// statusEventID identifies a snapshot by run and progress
func statusEventID(s bulksync.Status) string {
	if s.RunID == "" {
		return ""
	}
	return s.RunID + "/" + strconv.Itoa(s.ProcessedItems)
}

// resolveTargets parses marketplace names, falling back to the defaults
func (h *SyncHandler) resolveTargets(names []string) ([]integration.MarketplaceID, error) {
	if len(names) == 0 {
		return h.defaultTargets, nil
	}
	ids := make([]integration.MarketplaceID, 0, len(names))
	for _, name := range names {
		id, err := integration.ParseMarketplaceID(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// queryTargets reads ?targets=a,b and ?targets=a&targets=b
func queryTargets(c *gin.Context) []string {
	var out []string
	for _, v := range c.QueryArray("targets") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// parseUpload reads the CSV from a multipart "file" field or the raw body
func (h *SyncHandler) parseUpload(c *gin.Context) (*csvimport.Upload, error) {
	var body io.Reader = c.Request.Body
	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, errMissingUploadFile
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		body = f
	}
	return h.uploads.Parse(body)
}

var errMissingUploadFile = errors.New("upload: multipart field 'file' is required")

// handleUploadError maps file-level upload problems to responses
func (h *SyncHandler) handleUploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errMissingUploadFile):
		h.BadRequest(c, err.Error())
	case errors.Is(err, csvimport.ErrFileTooLarge), errors.As(err, &tooLarge):
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, err.Error())
	default:
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
	}
}
