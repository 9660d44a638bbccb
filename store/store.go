package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/metric"
	"github.com/c360/graphcfg/pkg/retry"
	"github.com/c360/graphcfg/template"
	"github.com/c360/graphcfg/value"
)

// DefaultBucket is the KV bucket templates persist in
const DefaultBucket = "graphcfg_templates"

// Store persists graph templates in a NATS KV bucket and expands them
// on demand. Every write is versioned; concurrent updates are rejected
// rather than silently overwritten.
type Store struct {
	bucket   jetstream.KeyValue
	conn     *nats.Conn // owned only when built through Connect
	logger   *slog.Logger
	metrics  *metric.Metrics
	expander template.Expander
}

type options struct {
	bucket  string
	history uint8
	logger  *slog.Logger
	metrics *metric.Metrics
	retry   retry.Config
}

// Option configures a Store
type Option func(*options)

// WithBucket overrides the KV bucket name
func WithBucket(name string) Option {
	return func(o *options) { o.bucket = name }
}

// WithHistory sets how many revisions the bucket keeps per template
func WithHistory(depth uint8) Option {
	return func(o *options) { o.history = depth }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics enables operation and expansion metrics
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRetry overrides the backoff used when reaching the server
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

func buildOptions(opts []Option) options {
	o := options{
		bucket:  DefaultBucket,
		history: 10,
		logger:  slog.Default(),
		retry:   retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New wraps an existing KV bucket. Callers that manage their own NATS
// connection use this directly.
func New(bucket jetstream.KeyValue, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		bucket:   bucket,
		logger:   o.logger,
		metrics:  o.metrics,
		expander: template.Expander{Metrics: o.metrics},
	}
}

// Open creates or binds the template bucket on an established
// connection.
func Open(ctx context.Context, nc *nats.Conn, opts ...Option) (*Store, error) {
	o := buildOptions(opts)

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, errors.WrapTransient(err, "Store", "Open", "initialize JetStream")
	}

	var bucket jetstream.KeyValue
	err = retry.Do(ctx, o.retry, func() error {
		// Bind to an existing bucket first; create only when absent.
		b, kvErr := js.KeyValue(ctx, o.bucket)
		if kvErr == nil {
			bucket = b
			return nil
		}
		b, kvErr = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      o.bucket,
			Description: "Graph templates and their default arguments",
			History:     o.history,
		})
		if kvErr != nil {
			return kvErr
		}
		bucket = b
		return nil
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "Store", "Open", "create KV bucket")
	}

	o.logger.Info("template bucket ready", "bucket", o.bucket)

	s := New(bucket, opts...)
	return s, nil
}

// Connect dials the NATS server, then opens the template bucket. The
// returned store owns the connection; Close drains it.
func Connect(ctx context.Context, url string, opts ...Option) (*Store, error) {
	o := buildOptions(opts)

	connOpts := []nats.Option{
		nats.Name("graphcfg"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			o.logger.Warn("NATS disconnected", "error", err)
			if o.metrics != nil {
				o.metrics.NATSConnected.Set(0)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			o.logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
			if o.metrics != nil {
				o.metrics.NATSConnected.Set(1)
				o.metrics.NATSReconnects.Inc()
			}
		}),
	}

	conn, err := retry.DoWithResult(ctx, o.retry, func() (*nats.Conn, error) {
		return nats.Connect(url, connOpts...)
	})
	if err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %s: %w", errors.ErrNoConnection, url, err),
			"Store", "Connect", "dial NATS")
	}

	o.logger.Info("connected to NATS", "url", url)
	if o.metrics != nil {
		o.metrics.NATSConnected.Set(1)
	}

	s, err := Open(ctx, conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn
	return s, nil
}

// Close drains the connection when the store owns one
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		return errors.WrapTransient(err, "Store", "Close", "drain connection")
	}
	if s.metrics != nil {
		s.metrics.NATSConnected.Set(0)
	}
	return nil
}

// Create stores a new template. It fails when the ID is taken.
func (s *Store) Create(ctx context.Context, tpl *StoredTemplate) (err error) {
	defer s.record("create", &err)

	if tpl == nil {
		return errors.WrapSemantic(
			fmt.Errorf("%w: template cannot be nil", errors.ErrInvalidConfig),
			"Store", "Create", "argument validation")
	}
	if err := tpl.Validate(); err != nil {
		return err
	}

	tpl.Version = 1
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	data, err := json.Marshal(tpl)
	if err != nil {
		return errors.WrapSemantic(err, "Store", "Create", "marshal template")
	}

	if _, err := s.bucket.Create(ctx, tpl.ID, data); err != nil {
		if isConflict(err) {
			return errors.WrapSemantic(
				fmt.Errorf("%w: %s", errors.ErrTemplateExists, tpl.ID),
				"Store", "Create", "create in KV")
		}
		return errors.WrapTransient(err, "Store", "Create", "create in KV")
	}

	s.logger.Info("template created", "id", tpl.ID)
	return nil
}

// Get retrieves a template by ID
func (s *Store) Get(ctx context.Context, id string) (tpl *StoredTemplate, err error) {
	defer s.record("get", &err)

	tpl, _, err = s.get(ctx, id)
	return tpl, err
}

// get also returns the KV revision backing the entry, for CAS updates
func (s *Store) get(ctx context.Context, id string) (*StoredTemplate, uint64, error) {
	if id == "" {
		return nil, 0, errors.WrapSemantic(
			fmt.Errorf("%w: template ID cannot be empty", errors.ErrInvalidConfig),
			"Store", "Get", "argument validation")
	}

	entry, err := s.bucket.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, errors.WrapSemantic(
				fmt.Errorf("%w: %s", errors.ErrTemplateNotFound, id),
				"Store", "Get", "get from KV")
		}
		return nil, 0, errors.WrapTransient(err, "Store", "Get", "get from KV")
	}

	var tpl StoredTemplate
	if err := json.Unmarshal(entry.Value(), &tpl); err != nil {
		return nil, 0, errors.WrapSemantic(err, "Store", "Get", "unmarshal template")
	}
	return &tpl, entry.Revision(), nil
}

// Update replaces a stored template. The caller passes the version it
// read; a mismatch means someone else wrote in between and the update
// is rejected.
func (s *Store) Update(ctx context.Context, tpl *StoredTemplate) (err error) {
	defer s.record("update", &err)

	if tpl == nil {
		return errors.WrapSemantic(
			fmt.Errorf("%w: template cannot be nil", errors.ErrInvalidConfig),
			"Store", "Update", "argument validation")
	}
	if err := tpl.Validate(); err != nil {
		return err
	}

	current, revision, err := s.get(ctx, tpl.ID)
	if err != nil {
		return err
	}
	if current.Version != tpl.Version {
		return errors.WrapSemantic(
			fmt.Errorf("%w: %s: have version %d, want %d",
				errors.ErrVersionConflict, tpl.ID, tpl.Version, current.Version),
			"Store", "Update", "version check")
	}

	tpl.Version++
	tpl.CreatedAt = current.CreatedAt
	tpl.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(tpl)
	if err != nil {
		return errors.WrapSemantic(err, "Store", "Update", "marshal template")
	}

	if _, err := s.bucket.Update(ctx, tpl.ID, data, revision); err != nil {
		if isConflict(err) {
			return errors.WrapSemantic(
				fmt.Errorf("%w: %s", errors.ErrVersionConflict, tpl.ID),
				"Store", "Update", "CAS update in KV")
		}
		return errors.WrapTransient(err, "Store", "Update", "update in KV")
	}

	s.logger.Info("template updated", "id", tpl.ID, "version", tpl.Version)
	return nil
}

// Delete removes a template by ID
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	defer s.record("delete", &err)

	if id == "" {
		return errors.WrapSemantic(
			fmt.Errorf("%w: template ID cannot be empty", errors.ErrInvalidConfig),
			"Store", "Delete", "argument validation")
	}

	// Get first so deleting a missing template reports not-found
	// instead of silently succeeding.
	if _, _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.bucket.Delete(ctx, id); err != nil {
		return errors.WrapTransient(err, "Store", "Delete", "delete from KV")
	}

	s.logger.Info("template deleted", "id", id)
	return nil
}

// List retrieves every stored template
func (s *Store) List(ctx context.Context) (tpls []*StoredTemplate, err error) {
	defer s.record("list", &err)

	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		if isNoKeys(err) {
			return []*StoredTemplate{}, nil
		}
		return nil, errors.WrapTransient(err, "Store", "List", "list KV keys")
	}

	tpls = make([]*StoredTemplate, 0, len(keys))
	for _, key := range keys {
		tpl, _, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, tpl)
	}
	return tpls, nil
}

// Expand loads a template and expands it with the caller's arguments
// overlaid on the stored defaults.
func (s *Store) Expand(ctx context.Context, id string, args value.TaggedValue) ([]byte, []error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, []error{err}
	}

	out, errs := s.expander.ExpandNamed(id, mergeArgs(tpl.Defaults, args), tpl.Template)
	if len(errs) > 0 {
		s.logger.Warn("template expansion failed", "id", id, "errors", len(errs))
		return nil, errs
	}
	return out, nil
}

// record reports one store operation to metrics
func (s *Store) record(operation string, err *error) {
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(operation, *err)
	}
}

// The jetstream package surfaces some KV failures as typed errors and
// others as raw API errors, so both shapes are matched here.

func isNotFound(err error) bool {
	return stderrors.Is(err, jetstream.ErrKeyNotFound) ||
		strings.Contains(err.Error(), "key not found")
}

func isConflict(err error) bool {
	return stderrors.Is(err, jetstream.ErrKeyExists) ||
		strings.Contains(err.Error(), "wrong last sequence") ||
		strings.Contains(err.Error(), "key exists")
}

func isNoKeys(err error) bool {
	return stderrors.Is(err, jetstream.ErrNoKeysFound) ||
		strings.Contains(err.Error(), "no keys found")
}
