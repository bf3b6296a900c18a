package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Tenant:    7,
		Actor:     "kari",
		Action:    "invoice.create",
		Details:   "Invoice number 2026-1 to Acme AS, total 337.50",
		EntityRef: "2026-1",
		VoucherID: "0b7c9a64-4f3e-4b8f-9a53-5d3f4f2c1e10",
	}
}

func TestAppendCreatesFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testEntry()))

	data, err := os.ReadFile(filepath.Join(dir, RelPath))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
}

func TestAppendExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testEntry()))

	second := testEntry()
	second.Action = "expense.advance"
	second.EntityRef = "EXP-3"
	second.VoucherID = ""
	require.NoError(t, Append(dir, second))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "invoice.create", entries[0].Action)
	assert.Equal(t, "expense.advance", entries[1].Action)
	assert.Empty(t, entries[1].VoucherID)
}

func TestReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testEntry()
	require.NoError(t, Append(dir, want))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	got.Timestamp = want.Timestamp
	assert.Equal(t, want, got)
}

func TestAppendStampsZeroTimestamp(t *testing.T) {
	dir := t.TempDir()
	e := testEntry()
	e.Timestamp = time.Time{}
	before := time.Now().Add(-time.Second)
	require.NoError(t, Append(dir, e))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Timestamp.After(before))
}

func TestReadMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()
	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RelPath), []byte(Header+"\n"), 0o644))
	entries, err = Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestMarshalEntry(t *testing.T) {
	row := MarshalEntry(testEntry())
	require.Len(t, row, 7)
	assert.Equal(t, "2026-03-02T09:15:00Z", row[0])
	assert.Equal(t, "7", row[1])
}

func TestUnmarshalEntryErrors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 7 fields")

	row := MarshalEntry(testEntry())
	row[1] = "seven"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing tenant")

	row = MarshalEntry(testEntry())
	row[0] = "yesterday"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing timestamp")
}
