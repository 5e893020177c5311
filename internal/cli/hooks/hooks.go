// Package hooks implements the application-side callbacks wired into the
// settings blocks: cloud client construction, bucket selection, column
// mapping accumulation, date reinterpretation, and the final decoder run.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	progressbar "github.com/schollz/progressbar/v3"

	"github.com/adscale/bq-bootstrap/pkg/decoder"
	"github.com/adscale/bq-bootstrap/pkg/settings"
	"github.com/adscale/bq-bootstrap/pkg/storage"
)

// Shared scratch keys on settings.Settings.Custom. Hooks write them in
// resolution order; later options read them.
const (
	// KeyStorageClient holds the storage.Client built by SetClients.
	KeyStorageClient = "storage_client"
	// KeyColumnMap holds the accumulated []decoder.ColumnMapping.
	KeyColumnMap = "historical_map"
	// KeyNormalizedOutput holds the path of the merged decoder output.
	KeyNormalizedOutput = "normalized_output"
)

// Hooks carries the shared dependencies the option callbacks need. The
// dialer and progress writer are injectable so interactive flows are
// testable without network access or terminal output.
type Hooks struct {
	ctx     context.Context
	console settings.Console
	handler slog.Handler
	logger  *slog.Logger

	dial      func(ctx context.Context) (storage.Client, error)
	barWriter io.Writer
}

// Opt customizes a Hooks instance.
type Opt func(*Hooks)

// WithDialer replaces the storage client factory. Tests inject mock
// clients here.
func WithDialer(dial func(ctx context.Context) (storage.Client, error)) Opt {
	return func(h *Hooks) { h.dial = dial }
}

// WithProgressWriter redirects decoder progress output.
func WithProgressWriter(w io.Writer) Opt {
	return func(h *Hooks) { h.barWriter = w }
}

// New builds the hook set. A nil console falls back to the silent console
// and a nil handler to the default slog backend.
func New(ctx context.Context, console settings.Console, handler slog.Handler, opts ...Opt) *Hooks {
	if console == nil {
		console = settings.NopConsole{}
	}
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &Hooks{
		ctx:       ctx,
		console:   console,
		handler:   handler,
		logger:    slog.New(handler).With(slog.String("component", "hooks")),
		dial:      storage.NewClient,
		barWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetClients is the post-set hook on the project option. It dials the
// storage client once and parks it in the shared scratch map for the bucket
// option further down the pass.
func (h *Hooks) SetClients(o *settings.Option) error {
	if _, err := h.storageClient(o.Settings()); err != nil {
		return fmt.Errorf("connecting to cloud storage for project %s: %w", o.String(), err)
	}
	h.logger.Debug("Storage client ready", slog.String("project", o.String()))
	return nil
}

// BucketOptions is the prompt decorator on the bucket option. It lists the
// project's buckets as a numbered menu plus a create shortcut, and stashes
// the listing in the option scratch so the post-set hook can resolve a
// numeric choice. Invoked fresh on every retry, so a bucket created in a
// failed earlier cycle shows up in the next menu.
func (h *Hooks) BucketOptions(o *settings.Option) string {
	client, err := h.storageClient(o.Settings())
	if err != nil {
		return "Bucket listing unavailable. Enter a bucket name, or [c] to create one."
	}
	names, err := client.ListBuckets(h.ctx, o.Settings().String("gcp_project_name"))
	if err != nil {
		h.logger.Debug("Bucket listing failed", slog.String("error", err.Error()))
		return "Bucket listing unavailable. Enter a bucket name, or [c] to create one."
	}
	o.Scratch()["buckets"] = names

	var b strings.Builder
	b.WriteString("Select a bucket:")
	for i, name := range names {
		fmt.Fprintf(&b, "\n%d: %s", i+1, name)
	}
	b.WriteString("\nc: Create a new bucket")
	return b.String()
}

// SelectBucket is the post-set hook on the bucket option. It resolves a
// numeric menu choice, the create shortcut, or a literal bucket name into
// an existing bucket, offering to create missing ones. A returned error
// unwinds the assignment and re-prompts.
func (h *Hooks) SelectBucket(o *settings.Option) error {
	client, err := h.storageClient(o.Settings())
	if err != nil {
		return err
	}

	choice := strings.TrimSpace(o.String())
	names, _ := o.Scratch()["buckets"].([]string)
	if n, err := strconv.Atoi(choice); err == nil {
		if n < 1 || n > len(names) {
			return fmt.Errorf("%w: no bucket numbered %d", settings.ErrValidation, n)
		}
		o.SetValue(names[n-1])
		return nil
	}
	if strings.EqualFold(choice, "c") {
		name, err := h.console.Prompt("Name of the new bucket: ")
		if err != nil {
			return err
		}
		return h.createBucket(o, client, strings.TrimSpace(name))
	}
	return h.resolveBucket(o, client, choice)
}

func (h *Hooks) resolveBucket(o *settings.Option, client storage.Client, name string) error {
	resolved, err := client.GetBucket(h.ctx, name)
	if err == nil {
		o.SetValue(resolved)
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		for {
			answer, perr := h.console.Prompt(fmt.Sprintf("Bucket %s does not exist. Create it? [y/n]: ", name))
			if perr != nil {
				return perr
			}
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "y", "yes":
				return h.createBucket(o, client, name)
			case "n", "no":
				return fmt.Errorf("%w: bucket %s declined", settings.ErrValidation, name)
			default:
				h.console.Notice("Invalid option. Select y/n.")
			}
		}
	}
	if errors.Is(err, storage.ErrForbidden) {
		return fmt.Errorf("%w: bucket name %s appears to be taken by another project, choose a different name", settings.ErrValidation, name)
	}
	return err
}

func (h *Hooks) createBucket(o *settings.Option, client storage.Client, name string) error {
	project := o.Settings().String("gcp_project_name")
	created, err := client.CreateBucket(h.ctx, project, name)
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}
	h.console.Success("Created bucket %s", created)
	o.SetValue(created)
	return nil
}

// MapColumn returns a post-set hook that folds the option's answer into the
// shared column map under the given canonical name. Mapping order is hook
// invocation order, which is declaration order.
func (h *Hooks) MapColumn(canonical string) func(*settings.Option) error {
	return func(o *settings.Option) error {
		s := o.Settings()
		mappings, _ := s.Custom[KeyColumnMap].([]decoder.ColumnMapping)
		s.Custom[KeyColumnMap] = append(mappings, decoder.ColumnMapping{
			Source: o.String(),
			Target: canonical,
		})
		return nil
	}
}

// ConvertToDate is the post-set hook on date options. ISO input passes
// through; anything else is reinterpreted with the locale implied by the
// location option (day-first unless the location starts with "us") and
// confirmed interactively before the canonical form replaces the answer.
func (h *Hooks) ConvertToDate(o *settings.Option) error {
	raw := strings.TrimSpace(o.String())
	if _, err := time.Parse("2006-01-02", raw); err == nil {
		return nil
	}
	location := strings.ToLower(o.Settings().String("location"))
	monthFirst := strings.HasPrefix(location, "us")
	parsed, err := dateparse.ParseAny(raw, dateparse.PreferMonthFirst(monthFirst))
	if err != nil {
		return fmt.Errorf("%w: cannot interpret %q as a date", settings.ErrParse, raw)
	}
	canonical := parsed.Format("2006-01-02")
	for {
		answer, perr := h.console.Prompt(fmt.Sprintf("Interpreting %q as %s. Correct? [y/n]: ", raw, canonical))
		if perr != nil {
			return perr
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			o.SetValue(canonical)
			return nil
		case "n", "no":
			return fmt.Errorf("%w: date %q rejected", settings.ErrValidation, raw)
		default:
			h.console.Notice("Invalid option. Select y/n or set the value to yyyy-mm-dd. Example: 1999-12-31")
		}
	}
}

// ProcessHistoricalFiles is the post-set hook on the final confirmation
// option. It runs the decoder over the collected file path with the
// accumulated column map, reporting row progress, and records the merged
// output location in the shared scratch map.
func (h *Hooks) ProcessHistoricalFiles(o *settings.Option) error {
	if !o.Bool() {
		return nil
	}
	s := o.Settings()
	if out, ok := s.Custom[KeyNormalizedOutput].(string); ok && !s.Bool("overwrite_storage_csv") {
		if _, err := os.Stat(out); err == nil {
			h.console.Success("Reusing existing %s", out)
			return nil
		}
	}
	columns, _ := s.Custom[KeyColumnMap].([]decoder.ColumnMapping)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(h.barWriter),
		progressbar.OptionSetDescription("Normalizing rows"),
		progressbar.OptionSpinnerType(14),
	)
	previous := 0
	d, err := decoder.New(decoder.Options{
		Path:    s.String("file_path"),
		Columns: columns,
		Mode:    decoder.SingleFile,
		Dest:    fmt.Sprintf("sa360-bq-%s.csv", s.String("advertiser_id")),
		Logger:  h.handler,
		OnRows: func(total int) {
			_ = bar.Add(total - previous)
			previous = total
		},
	})
	if err != nil {
		return err
	}
	out, err := d.Run(h.ctx)
	_ = bar.Close()
	fmt.Fprintln(h.barWriter)
	if err != nil {
		return fmt.Errorf("normalizing historical data: %w", err)
	}
	s.Custom[KeyNormalizedOutput] = out
	h.console.Success("Normalized %d rows into %s", d.RowsOpened(), out)
	return nil
}

// storageClient fetches the shared client, dialing it on first use. The
// project option's hook is skipped when its value arrives pre-supplied, so
// the bucket callbacks cannot assume the client is already there.
func (h *Hooks) storageClient(s *settings.Settings) (storage.Client, error) {
	if client, ok := s.Custom[KeyStorageClient].(storage.Client); ok {
		return client, nil
	}
	client, err := h.dial(h.ctx)
	if err != nil {
		return nil, err
	}
	s.Custom[KeyStorageClient] = client
	return client, nil
}
