// Package importer drives bulk tabular input: supplier CSV exports merged
// into stock, BOM files staged into a cart, and whole-database export or
// replacement.
//
// Supplier tooling emits CSVs in whatever encoding the vendor's OS favored,
// so decoding tries a fixed chain of encodings and, within each, tab before
// comma. The first combination that parses to more than one column wins.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// decodings is the fallback chain, most specific first. Windows-1252 accepts
// nearly any byte, so it and Latin-1 sit at the end as catch-alls.
var decodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8BOM},
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"windows-1252", charmap.Windows1252},
	{"latin-1", charmap.ISO8859_1},
}

var delimiters = []rune{'\t', ','}

// Table is decoded tabular input: ordered headers plus rows keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Header returns the first header whose lowercase form contains any of the
// given terms, for files whose column names only roughly follow convention.
func (t Table) Header(terms ...string) (string, bool) {
	for _, h := range t.Headers {
		lower := strings.ToLower(h)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return h, true
			}
		}
	}
	return "", false
}

// DecodeTable reads r fully and decodes it through the fallback chain.
func DecodeTable(r io.Reader) (Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return Table{}, errors.New("importer: empty file")
	}

	var lastErr error
	for _, d := range decodings {
		decoded, err := d.enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.name, err)
			continue
		}
		// The decoders substitute U+FFFD instead of failing, so a wrong
		// guess (UTF-16 bytes fed to the UTF-8 decoder, say) surfaces as
		// replacement runes or embedded NULs rather than an error. Treat
		// either as a failed decode and move down the chain.
		if bytes.IndexByte(decoded, 0) >= 0 || bytes.ContainsRune(decoded, '�') {
			lastErr = fmt.Errorf("%s: undecodable bytes", d.name)
			continue
		}
		for _, delim := range delimiters {
			table, err := parseCSV(string(decoded), delim)
			if err != nil {
				lastErr = fmt.Errorf("%s: %w", d.name, err)
				continue
			}
			if len(table.Headers) > 1 {
				return table, nil
			}
		}
	}

	if lastErr != nil {
		return Table{}, fmt.Errorf("importer: could not read file: %w", lastErr)
	}
	return Table{}, errors.New("importer: could not read file: no encoding yielded more than one column")
}

func parseCSV(content string, delim rune) (Table, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, errors.New("no rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return Table{Headers: headers, Rows: rows}, nil
}
