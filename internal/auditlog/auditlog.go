// Package auditlog records every mutating bookkeeping command in
// logs/audit-log.csv inside the books directory.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Entry is one audited action.
type Entry struct {
	Timestamp time.Time
	Tenant    model.TenantID
	Actor     string
	Action    string
	Details   string
	EntityRef string // invoice number or expense reference
	VoucherID string // empty when the action posted nothing
}

// Header is the first row of audit-log.csv.
const Header = "timestamp,tenant,actor,action,details,entity_ref,voucher_id"

// RelPath is the log location relative to the books directory.
const RelPath = "logs/audit-log.csv"

const (
	numFields    = 7
	colTimestamp = 0
	colTenant    = 1
	colActor     = 2
	colAction    = 3
	colDetails   = 4
	colEntityRef = 5
	colVoucherID = 6
)

// MarshalEntry converts e to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colTenant] = strconv.FormatInt(int64(e.Tenant), 10)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colEntityRef] = e.EntityRef
	row[colVoucherID] = e.VoucherID
	return row
}

// UnmarshalEntry parses a CSV row.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	tenant, err := strconv.ParseInt(record[colTenant], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing tenant %q: %w", record[colTenant], err)
	}
	return Entry{
		Timestamp: ts,
		Tenant:    model.TenantID(tenant),
		Actor:     record[colActor],
		Action:    record[colAction],
		Details:   record[colDetails],
		EntityRef: record[colEntityRef],
		VoucherID: record[colVoucherID],
	}, nil
}

// Append adds entries to the log under repoRoot, writing the header when the
// file is new.
func Append(repoRoot string, entries ...Entry) error {
	path := filepath.Join(repoRoot, RelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	_, statErr := os.Stat(path)
	needsHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every entry in the log. A missing file yields no entries.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(repoRoot, RelPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()
	return ReadEntries(f)
}

// ReadEntries parses a log stream including its header row.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
