package csvimport

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/hyperpc/marketsync/internal/domain/integration"
)

// Canonical upload columns
const (
	ColumnSKU       = "sku"
	ColumnQuantity  = "quantity"
	ColumnWarehouse = "warehouse"
)

// columnAliases maps accepted header spellings to canonical columns
var columnAliases = map[string]string{
	"sku":       ColumnSKU,
	"codigo":    ColumnSKU,
	"código":    ColumnSKU,
	"quantity":  ColumnQuantity,
	"qty":       ColumnQuantity,
	"cantidad":  ColumnQuantity,
	"stock":     ColumnQuantity,
	"warehouse": ColumnWarehouse,
	"bodega":    ColumnWarehouse,
}

// requiredColumns must be present in every upload header
var requiredColumns = []string{ColumnSKU, ColumnQuantity}

// uploadRecord is the validated shape of one row
type uploadRecord struct {
	SKU       string `csv:"sku" validate:"required,max=64"`
	Quantity  int    `csv:"quantity" validate:"gte=0,lte=1000000"`
	Warehouse string `csv:"warehouse" validate:"omitempty,max=64"`
}

// UploadOptions bounds an upload parse
type UploadOptions struct {
	// MaxRows is the maximum number of data rows accepted
	MaxRows int
	// MaxErrors is the maximum number of row errors kept
	MaxErrors int
	// Delimiter overrides the field delimiter
	Delimiter rune
}

// DefaultUploadOptions returns the default bounds
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{MaxRows: 10000, MaxErrors: 100, Delimiter: ','}
}

// Upload is the outcome of parsing one stock upload file
type Upload struct {
	// Items holds every row that passed validation, in file order
	Items []integration.BulkUploadItem
	// Rows is the number of non-blank data rows read
	Rows int
	// Errors holds the kept row errors
	Errors []RowError
	// TotalErrors counts every row error, including those over the limit
	TotalErrors int
	// Truncated is true when errors were dropped at the limit
	Truncated bool
}

// Valid reports whether the upload can be used as a batch as-is
func (u *Upload) Valid() bool {
	return u.TotalErrors == 0 && len(u.Items) > 0
}

// ErrorMessages returns the row errors formatted for display
func (u *Upload) ErrorMessages() []string {
	out := make([]string, len(u.Errors))
	for i, e := range u.Errors {
		out[i] = e.Error()
	}
	return out
}

// UploadValidator parses and validates stock upload files into bulk sync batches
type UploadValidator struct {
	opts     UploadOptions
	validate *validator.Validate
}

// NewUploadValidator creates a validator with opts. Zero fields take defaults.
func NewUploadValidator(opts UploadOptions) *UploadValidator {
	def := DefaultUploadOptions()
	if opts.MaxRows <= 0 {
		opts.MaxRows = def.MaxRows
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = def.MaxErrors
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = def.Delimiter
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("csv")
	})
	return &UploadValidator{opts: opts, validate: v}
}

// Parse reads an upload. File-level problems are returned as errors; row
// problems are collected on the returned Upload. Invalid rows are left out
// of Items.
func (uv *UploadValidator) Parse(r io.Reader) (*Upload, error) {
	parser, err := NewParser(r, WithDelimiter(uv.opts.Delimiter))
	if err != nil {
		return nil, err
	}
	if err := parser.ReadHeader(); err != nil {
		return nil, err
	}
	columns, err := resolveColumns(parser.Headers())
	if err != nil {
		return nil, err
	}

	ec := NewErrorCollection(uv.opts.MaxErrors)
	upload := &Upload{}
	for {
		row, err := parser.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr RowError
		if errors.As(err, &rowErr) {
			upload.Rows++
			ec.Add(rowErr)
			continue
		}
		if err != nil {
			return nil, err
		}
		if row.IsBlank() {
			continue
		}
		upload.Rows++
		if upload.Rows > uv.opts.MaxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrFileTooLarge, uv.opts.MaxRows)
		}
		if item, ok := uv.validateRow(row, columns, ec); ok {
			upload.Items = append(upload.Items, item)
		}
	}
	if upload.Rows == 0 {
		return nil, ErrNoDataRows
	}

	upload.Errors = ec.Errors()
	upload.TotalErrors = ec.TotalCount()
	upload.Truncated = ec.IsTruncated()
	return upload, nil
}

// resolveColumns maps canonical columns to header names present in the file
func resolveColumns(headers []string) (map[string]string, error) {
	columns := make(map[string]string, len(requiredColumns)+1)
	for _, h := range headers {
		if canonical, ok := columnAliases[h]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = h
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

// validateRow converts and validates one row, recording problems in ec
func (uv *UploadValidator) validateRow(row *Row, columns map[string]string, ec *ErrorCollection) (integration.BulkUploadItem, bool) {
	rec := uploadRecord{
		SKU:       row.Get(columns[ColumnSKU]),
		Warehouse: row.Get(columns[ColumnWarehouse]),
	}

	raw := row.Get(columns[ColumnQuantity])
	if raw == "" {
		ec.AddRequired(row.Line, ColumnQuantity)
		if rec.SKU == "" {
			ec.AddRequired(row.Line, ColumnSKU)
		}
		return integration.BulkUploadItem{}, false
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil || !qty.IsInteger() {
		ec.AddType(row.Line, ColumnQuantity, "a whole number", raw)
		if rec.SKU == "" {
			ec.AddRequired(row.Line, ColumnSKU)
		}
		return integration.BulkUploadItem{}, false
	}
	rec.Quantity = int(qty.IntPart())

	if err := uv.validate.Struct(rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			ec.Add(RowError{Row: row.Line, Code: ErrCodeUploadInvalidFile, Message: err.Error()})
			return integration.BulkUploadItem{}, false
		}
		for _, fe := range fieldErrs {
			recordFieldError(ec, row.Line, fe, raw)
		}
		return integration.BulkUploadItem{}, false
	}

	return integration.BulkUploadItem{
		SKU:       rec.SKU,
		Quantity:  rec.Quantity,
		Warehouse: rec.Warehouse,
	}, true
}

// recordFieldError translates a validator failure into a row error
func recordFieldError(ec *ErrorCollection, line int, fe validator.FieldError, rawQuantity string) {
	column := fe.Field()
	value := fmt.Sprint(fe.Value())
	if column == ColumnQuantity {
		value = rawQuantity
	}
	switch fe.Tag() {
	case "required":
		ec.AddRequired(line, column)
	case "gte":
		ec.AddRange(line, column, "at least "+fe.Param(), value)
	case "lte":
		ec.AddRange(line, column, "at most "+fe.Param(), value)
	case "max":
		ec.Add(RowError{Row: line, Column: column, Code: ErrCodeUploadInvalidLength,
			Message: fmt.Sprintf("must be at most %s characters", fe.Param()), Value: value})
	default:
		ec.Add(RowError{Row: line, Column: column, Code: ErrCodeUploadInvalidType,
			Message: "failed " + fe.Tag() + " validation", Value: value})
	}
}
