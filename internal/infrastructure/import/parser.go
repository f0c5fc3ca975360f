package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped from the start of uploads saved by spreadsheet tools
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingProbeSize is how much of the file is checked for valid UTF-8
const encodingProbeSize = 4096

// Parser reads a delimited upload file row by row.
// Header names are normalized to lower case.
type Parser struct {
	delimiter rune
	reader    *csv.Reader
	headers   []string
	index     map[string]int
	line      int
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter. Spreadsheets exported with a Spanish
// locale use ';'.
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// NewParser creates a parser over r
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{delimiter: ',', index: make(map[string]int)}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	probe, err := br.Peek(encodingProbeSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("csvimport: read upload: %w", err)
	}
	if len(bytes.TrimSpace(probe)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(probe)) {
		return nil, ErrInvalidEncoding
	}

	p.reader = csv.NewReader(br)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// ParseBytes creates a parser over data
func ParseBytes(data []byte, opts ...ParserOption) (*Parser, error) {
	return NewParser(bytes.NewReader(data), opts...)
}

// trimPartialRune drops a multi-byte sequence cut off by the probe window
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// ReadHeader reads the header row
func (p *Parser) ReadHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("csvimport: read header: %w", err)
	}
	p.line = 1
	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		if _, dup := p.index[name]; !dup && name != "" {
			p.index[name] = i
		}
	}
	if len(p.index) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// HasColumn reports whether the header contains name
func (p *Parser) HasColumn(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Row is one data row keyed by normalized header. Line is the physical line
// the row starts on.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of column
func (r *Row) Get(column string) string {
	return r.Values[column]
}

// IsBlank reports whether every cell is empty
func (r *Row) IsBlank() bool {
	for _, v := range r.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next row, or io.EOF when the file is exhausted.
// A malformed row is returned as a RowError and parsing may continue.
func (p *Parser) Next() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		p.line++
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			p.line = pe.StartLine
		}
		return nil, RowError{Row: p.line, Code: ErrCodeUploadMalformedRow, Message: err.Error()}
	}
	p.line, _ = p.reader.FieldPos(0)
	row := &Row{Line: p.line, Values: make(map[string]string, len(p.index))}
	for name, i := range p.index {
		if i < len(record) {
			row.Values[name] = strings.TrimSpace(record[i])
		} else {
			row.Values[name] = ""
		}
	}
	return row, nil
}
