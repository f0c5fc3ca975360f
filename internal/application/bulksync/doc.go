// Package bulksync drives bulk stock updates across marketplaces.
//
// A run fans a batch of (SKU, quantity) items out to a set of target
// marketplaces. Every (item, target) pair is one unit of work, executed
// exactly once by a bounded worker pool. Failed units are recorded and never
// abort the run. Progress is exposed as a pollable Status snapshot and as a
// subscription stream; the aggregate BulkUploadResult is only published once
// every unit has completed.
package bulksync
