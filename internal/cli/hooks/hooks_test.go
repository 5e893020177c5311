package hooks_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adscale/bq-bootstrap/internal/cli/hooks"
	"github.com/adscale/bq-bootstrap/internal/testutil"
	"github.com/adscale/bq-bootstrap/pkg/decoder"
	"github.com/adscale/bq-bootstrap/pkg/settings"
	"github.com/adscale/bq-bootstrap/pkg/storage"
)

// fixture builds a minimal container with the keys the hooks read and seeds
// the given resolved values.
func fixture(t *testing.T, resolved map[string]any) *settings.Settings {
	t.Helper()
	s, err := settings.New(&settings.Block{
		Label: "General Settings",
		Options: []*settings.Option{
			{Key: "gcp_project_name", Help: "GCP Project Name"},
			{Key: "location", Help: "Dataset Location", Default: "US"},
			{Key: "advertiser_id", Help: "Advertiser ID"},
			{Key: "file_path", Help: "Historical Data Path"},
			{Key: "storage_bucket", Help: "Storage Bucket"},
			{Key: "start_date", Help: "First Conversion Date"},
			{Key: "process_files", Help: "Process files now", Kind: settings.KindBool},
			{Key: "overwrite_storage_csv", Help: "Overwrite merged CSV", Kind: settings.KindBool, Optional: true},
		},
	})
	require.NoError(t, err)
	for key, val := range resolved {
		require.NoError(t, s.Option(key).Resolve(settings.FromInit(val), nil))
	}
	return s
}

func newHooks(t *testing.T, console settings.Console, client storage.Client) (*hooks.Hooks, *int) {
	t.Helper()
	dials := 0
	h := hooks.New(context.Background(), console, nil,
		hooks.WithDialer(func(context.Context) (storage.Client, error) {
			dials++
			return client, nil
		}),
		hooks.WithProgressWriter(io.Discard),
	)
	return h, &dials
}

func TestSetClientsDialsOnce(t *testing.T) {
	client := &testutil.MockBucketClient{}
	h, dials := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})

	o := s.Option("gcp_project_name")
	require.NoError(t, h.SetClients(o))
	require.NoError(t, h.SetClients(o))

	assert.Equal(t, 1, *dials)
	assert.Same(t, client, s.Custom[hooks.KeyStorageClient])
}

func TestSetClientsWrapsDialFailure(t *testing.T) {
	h := hooks.New(context.Background(), nil, nil,
		hooks.WithDialer(func(context.Context) (storage.Client, error) {
			return nil, errors.New("no credentials")
		}))
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})

	err := h.SetClients(s.Option("gcp_project_name"))
	assert.ErrorContains(t, err, "no credentials")
	assert.NotContains(t, s.Custom, hooks.KeyStorageClient)
}

func TestBucketOptionsListsAndStashes(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("ListBuckets", mock.Anything, "acme-project").
		Return([]string{"reports", "archive"}, nil)
	h, _ := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := s.Option("storage_bucket")
	menu := h.BucketOptions(o)

	assert.Contains(t, menu, "1: reports")
	assert.Contains(t, menu, "2: archive")
	assert.Contains(t, menu, "c: Create a new bucket")
	assert.Equal(t, []string{"reports", "archive"}, o.Scratch()["buckets"])
	client.AssertExpectations(t)
}

func TestBucketOptionsDegradesWhenListingFails(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("ListBuckets", mock.Anything, "acme-project").
		Return(nil, errors.New("api unreachable"))
	h, _ := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	menu := h.BucketOptions(s.Option("storage_bucket"))
	assert.Contains(t, menu, "Bucket listing unavailable")
}

func setBucketAnswer(t *testing.T, s *settings.Settings, answer string) *settings.Option {
	t.Helper()
	o := s.Option("storage_bucket")
	require.NoError(t, o.Resolve(settings.FromInit(answer), nil))
	return o
}

func TestSelectBucketNumericChoice(t *testing.T) {
	client := &testutil.MockBucketClient{}
	h, _ := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "2")
	o.Scratch()["buckets"] = []string{"reports", "archive"}

	require.NoError(t, h.SelectBucket(o))
	assert.Equal(t, "archive", o.String())
}

func TestSelectBucketNumericOutOfRange(t *testing.T) {
	client := &testutil.MockBucketClient{}
	h, _ := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "5")
	o.Scratch()["buckets"] = []string{"reports"}

	assert.ErrorIs(t, h.SelectBucket(o), settings.ErrValidation)
}

func TestSelectBucketLiteralNameExists(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("GetBucket", mock.Anything, "reports").Return("reports", nil)
	h, _ := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "reports")
	require.NoError(t, h.SelectBucket(o))
	assert.Equal(t, "reports", o.String())
	client.AssertExpectations(t)
}

func TestSelectBucketMissingOffersCreate(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("GetBucket", mock.Anything, "fresh").Return("", storage.ErrNotFound)
	client.On("CreateBucket", mock.Anything, "acme-project", "fresh").Return("fresh", nil)
	console := &testutil.ScriptConsole{Inputs: []string{"maybe", "y"}}
	h, _ := newHooks(t, console, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "fresh")
	require.NoError(t, h.SelectBucket(o))

	assert.Equal(t, "fresh", o.String())
	// The unrecognized answer warned and re-asked before "y" was accepted.
	assert.Len(t, console.Prompts, 2)
	assert.True(t, console.Noticed("Invalid option"))
	require.NotEmpty(t, console.Successes)
	assert.Contains(t, console.Successes[0], "Created bucket fresh")
	client.AssertExpectations(t)
}

func TestSelectBucketMissingDeclined(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("GetBucket", mock.Anything, "fresh").Return("", storage.ErrNotFound)
	console := &testutil.ScriptConsole{Inputs: []string{"n"}}
	h, _ := newHooks(t, console, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "fresh")
	assert.ErrorIs(t, h.SelectBucket(o), settings.ErrValidation)
}

func TestSelectBucketForbiddenGuidance(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("GetBucket", mock.Anything, "taken").Return("", storage.ErrForbidden)
	h, _ := newHooks(t, nil, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "taken")
	err := h.SelectBucket(o)
	assert.ErrorIs(t, err, settings.ErrValidation)
	assert.ErrorContains(t, err, "taken by another project")
}

func TestSelectBucketCreateShortcut(t *testing.T) {
	client := &testutil.MockBucketClient{}
	client.On("CreateBucket", mock.Anything, "acme-project", "brand-new").Return("brand-new", nil)
	console := &testutil.ScriptConsole{Inputs: []string{"brand-new"}}
	h, _ := newHooks(t, console, client)
	s := fixture(t, map[string]any{"gcp_project_name": "acme-project"})
	s.Custom[hooks.KeyStorageClient] = client

	o := setBucketAnswer(t, s, "c")
	require.NoError(t, h.SelectBucket(o))
	assert.Equal(t, "brand-new", o.String())
	client.AssertExpectations(t)
}

func TestMapColumnAccumulatesInOrder(t *testing.T) {
	h, _ := newHooks(t, nil, &testutil.MockBucketClient{})
	s, err := settings.New(&settings.Block{
		Label: "Historical Data Columns",
		Options: []*settings.Option{
			{Key: "account_column", Help: "Account column", After: h.MapColumn("account_name")},
			{Key: "revenue_column", Help: "Revenue column", After: h.MapColumn("revenue")},
		},
	})
	require.NoError(t, err)

	console := &testutil.ScriptConsole{Inputs: []string{"Account", "Amount"}}
	require.NoError(t, s.Option("account_column").Resolve(settings.FromPrompt(), console))
	require.NoError(t, s.Option("revenue_column").Resolve(settings.FromPrompt(), console))

	assert.Equal(t, []decoder.ColumnMapping{
		{Source: "Account", Target: "account_name"},
		{Source: "Amount", Target: "revenue"},
	}, s.Custom[hooks.KeyColumnMap])
}

func TestConvertToDateISOPassesThrough(t *testing.T) {
	console := &testutil.ScriptConsole{}
	h, _ := newHooks(t, console, &testutil.MockBucketClient{})
	s := fixture(t, map[string]any{"location": "US", "start_date": "2021-04-05"})

	require.NoError(t, h.ConvertToDate(s.Option("start_date")))
	assert.Empty(t, console.Prompts)
	assert.Equal(t, "2021-04-05", s.String("start_date"))
}

func TestConvertToDateLocaleInterpretation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"us month first", "US", "2021-04-05"},
		{"eu day first", "EU", "2021-05-04"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			console := &testutil.ScriptConsole{Inputs: []string{"y"}}
			h, _ := newHooks(t, console, &testutil.MockBucketClient{})
			s := fixture(t, map[string]any{"location": tc.location, "start_date": "04/05/2021"})

			require.NoError(t, h.ConvertToDate(s.Option("start_date")))
			assert.Equal(t, tc.want, s.String("start_date"))
			require.Len(t, console.Prompts, 1)
			assert.Contains(t, console.Prompts[0], tc.want)
		})
	}
}

func TestConvertToDateUnrecognizedAnswerWarns(t *testing.T) {
	console := &testutil.ScriptConsole{Inputs: []string{"maybe", "y"}}
	h, _ := newHooks(t, console, &testutil.MockBucketClient{})
	s := fixture(t, map[string]any{"location": "US", "start_date": "04/05/2021"})

	require.NoError(t, h.ConvertToDate(s.Option("start_date")))
	assert.Equal(t, "2021-04-05", s.String("start_date"))
	assert.Len(t, console.Prompts, 2)
	assert.True(t, console.Noticed("Invalid option. Select y/n"))
}

func TestConvertToDateRejectedRetries(t *testing.T) {
	console := &testutil.ScriptConsole{Inputs: []string{"n"}}
	h, _ := newHooks(t, console, &testutil.MockBucketClient{})
	s := fixture(t, map[string]any{"location": "US", "start_date": "04/05/2021"})

	assert.ErrorIs(t, h.ConvertToDate(s.Option("start_date")), settings.ErrValidation)
}

func TestConvertToDateUnparseable(t *testing.T) {
	h, _ := newHooks(t, nil, &testutil.MockBucketClient{})
	s := fixture(t, map[string]any{"location": "US", "start_date": "not a date"})

	assert.ErrorIs(t, h.ConvertToDate(s.Option("start_date")), settings.ErrParse)
}

func TestProcessHistoricalFilesRunsDecoder(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "report.csv")
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll([][]string{
		{"Account", "Amount"},
		{"acme", "12"},
	}))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	console := &testutil.ScriptConsole{}
	h, _ := newHooks(t, console, &testutil.MockBucketClient{})
	s := fixture(t, map[string]any{
		"file_path":     in,
		"advertiser_id": "12345",
	})
	s.Custom[hooks.KeyColumnMap] = []decoder.ColumnMapping{
		{Source: "Account", Target: "account_name"},
		{Source: "Amount", Target: "revenue"},
	}

	o := s.Option("process_files")
	require.NoError(t, o.Resolve(settings.FromInit(true), nil))
	require.NoError(t, h.ProcessHistoricalFiles(o))

	out, ok := s.Custom[hooks.KeyNormalizedOutput].(string)
	require.True(t, ok)
	t.Cleanup(func() { os.RemoveAll(filepath.Dir(out)) })
	assert.Equal(t, "sa360-bq-12345.csv", filepath.Base(out))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"account_name", "revenue"},
		{"acme", "12"},
	}, records)
	require.NotEmpty(t, console.Successes)
	assert.Contains(t, console.Successes[0], "Normalized 1 rows")
}

func TestProcessHistoricalFilesReusesExistingOutput(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "sa360-bq-12345.csv")
	require.NoError(t, os.WriteFile(existing, []byte("account_name,revenue\n"), 0o644))

	console := &testutil.ScriptConsole{}
	h, _ := newHooks(t, console, &testutil.MockBucketClient{})
	// The file path is bogus, so the test fails if the decoder actually runs.
	s := fixture(t, map[string]any{
		"file_path":     filepath.Join(t.TempDir(), "missing"),
		"advertiser_id": "12345",
	})
	s.Custom[hooks.KeyNormalizedOutput] = existing

	o := s.Option("process_files")
	require.NoError(t, o.Resolve(settings.FromInit(true), nil))
	require.NoError(t, h.ProcessHistoricalFiles(o))

	assert.Equal(t, existing, s.Custom[hooks.KeyNormalizedOutput])
	require.NotEmpty(t, console.Successes)
	assert.Contains(t, console.Successes[0], "Reusing existing")
}

func TestProcessHistoricalFilesOverwriteReruns(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "report.csv")
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll([][]string{
		{"Account", "Amount"},
		{"acme", "12"},
	}))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))
	stale := filepath.Join(dir, "sa360-bq-12345.csv")
	require.NoError(t, os.WriteFile(stale, []byte("account_name,revenue\n"), 0o644))

	console := &testutil.ScriptConsole{}
	h, _ := newHooks(t, console, &testutil.MockBucketClient{})
	s := fixture(t, map[string]any{
		"file_path":             in,
		"advertiser_id":         "12345",
		"overwrite_storage_csv": true,
	})
	s.Custom[hooks.KeyNormalizedOutput] = stale
	s.Custom[hooks.KeyColumnMap] = []decoder.ColumnMapping{
		{Source: "Account", Target: "account_name"},
		{Source: "Amount", Target: "revenue"},
	}

	o := s.Option("process_files")
	require.NoError(t, o.Resolve(settings.FromInit(true), nil))
	require.NoError(t, h.ProcessHistoricalFiles(o))

	out, ok := s.Custom[hooks.KeyNormalizedOutput].(string)
	require.True(t, ok)
	t.Cleanup(func() { os.RemoveAll(filepath.Dir(out)) })
	assert.NotEqual(t, stale, out)
	require.NotEmpty(t, console.Successes)
	assert.Contains(t, console.Successes[0], "Normalized 1 rows")
}

func TestProcessHistoricalFilesSkipsWhenUnset(t *testing.T) {
	h, _ := newHooks(t, nil, &testutil.MockBucketClient{})
	s := fixture(t, nil)
	require.NoError(t, h.ProcessHistoricalFiles(s.Option("process_files")))
	assert.NotContains(t, s.Custom, hooks.KeyNormalizedOutput)
}
