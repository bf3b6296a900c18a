// Package importer reads invoice lines and expense costs from CSV files and
// manages the import/ inbox of the books directory.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Kind names the layout of an import file.
type Kind string

const (
	KindInvoiceLines Kind = "invoice-lines"
	KindExpenseCosts Kind = "expense-costs"
	KindUnknown      Kind = "unknown"
)

// InvoiceLineHeader and CostHeader are the expected header rows.
const (
	InvoiceLineHeader = "item_name,quantity,unit_price,discount_percent,vat_code"
	CostHeader        = "title,date,amount,vat_percent,currency,payment_type,chargeable"
)

const (
	importDir    = "import"
	processedDir = "import/processed"
)

// FileInfo describes a CSV file waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
	Kind Kind
}

// Detect classifies a header row. Column order does not matter.
func Detect(header []string) Kind {
	cols := normalize(header)
	switch {
	case hasAll(cols, strings.Split(InvoiceLineHeader, ",")):
		return KindInvoiceLines
	case hasAll(cols, strings.Split(CostHeader, ",")):
		return KindExpenseCosts
	default:
		return KindUnknown
	}
}

// Scan returns the CSV files in <repoRoot>/import/, classified by header.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		path := filepath.Join(dir, e.Name())
		kind, err := detectFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, FileInfo{Name: e.Name(), Path: path, Size: info.Size(), Kind: kind})
	}
	return files, nil
}

// Resolve finds name either as given or inside <repoRoot>/import/. The second
// result reports whether the file lives in the inbox.
func Resolve(repoRoot, name string) (string, bool, error) {
	inbox := filepath.Join(repoRoot, importDir, filepath.Base(name))
	if _, err := os.Stat(name); err == nil {
		abs, _ := filepath.Abs(name)
		inboxAbs, _ := filepath.Abs(inbox)
		return name, abs == inboxAbs, nil
	}
	if _, err := os.Stat(inbox); err == nil {
		return inbox, true, nil
	}
	return "", false, fmt.Errorf("import file %q not found", name)
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

func detectFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return KindUnknown, nil
		}
		return KindUnknown, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return Detect(header), nil
}

// columns maps header names to their positions.
type columns map[string]int

func readTable(r io.Reader, required []string) (columns, [][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, errors.New("missing header row")
	}

	cols := columns{}
	for i, name := range normalize(records[0]) {
		cols[name] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, records[1:], nil
}

func (c columns) get(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func normalize(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return out
}

func hasAll(cols, want []string) bool {
	for _, w := range want {
		if !slices.Contains(cols, w) {
			return false
		}
	}
	return true
}
