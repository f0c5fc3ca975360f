package integration

import "time"

// SyncResult is the outcome of one stock update against one marketplace
type SyncResult struct {
	Success   bool
	Message   string
	Timestamp time.Time
	Detail    string
}

// NewSyncSuccess creates a successful result
func NewSyncSuccess(message string, at time.Time) *SyncResult {
	return &SyncResult{Success: true, Message: message, Timestamp: at}
}

// NewSyncFailure creates a failed result
func NewSyncFailure(message, detail string, at time.Time) *SyncResult {
	return &SyncResult{Success: false, Message: message, Detail: detail, Timestamp: at}
}

// BulkUploadItem is one row of a stock upload batch
type BulkUploadItem struct {
	SKU       string
	Quantity  int
	Warehouse string
}

// BulkUploadError records one failed (item, marketplace) update
type BulkUploadError struct {
	SKU         string
	Marketplace MarketplaceID
	Error       string
}

// String formats the error for status listings
func (e BulkUploadError) String() string {
	if e.Marketplace == "" {
		return e.SKU + ": " + e.Error
	}
	return e.Marketplace.DisplayName() + " " + e.SKU + ": " + e.Error
}

// BulkUploadResult is the final aggregate of a bulk stock sync run.
// Total counts (item, marketplace) units, not items.
type BulkUploadResult struct {
	Total     int
	Processed int
	Success   int
	Failed    int
	Errors    []BulkUploadError
}
