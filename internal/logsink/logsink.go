// Package logsink ships JSON log lines to an Azure append blob.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type Config struct {
	Container  string
	BlobName   string        // defaults to the hostname
	FlushEvery time.Duration // default 2s
}

// appender is the part of the append blob client the handler needs.
type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

type Handler struct {
	sink  appender
	attrs []keyed // keys already carry their group prefix
	group string
	core  *core
}

type keyed struct {
	key   string
	value slog.Value
}

// core is shared by every handler derived through WithAttrs or WithGroup.
type core struct {
	ch     chan []byte
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// BlobPath puts each process's log under a YYYY/MM/DD folder.
func BlobPath(now time.Time, name string) string {
	return fmt.Sprintf("%d/%02d/%02d/%s.jsonl", now.Year(), now.Month(), now.Day(), name)
}

// New creates the append blob for the day the process started, if needed, and
// starts the flush loop.
func New(ctx context.Context, client *azblob.Client, cfg Config) (*Handler, error) {
	if cfg.Container == "" {
		return nil, errors.New("log sink container is required")
	}
	if cfg.BlobName == "" {
		cfg.BlobName, _ = os.Hostname()
	}

	ab := client.ServiceClient().NewContainerClient(cfg.Container).NewAppendBlobClient(BlobPath(time.Now().UTC(), cfg.BlobName))
	etag := azcore.ETagAny
	_, err := ab.Create(ctx, &appendblob.CreateOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: &etag},
		},
	})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return nil, fmt.Errorf("failed to create log blob: %w", err)
	}
	return newHandler(ab, cfg.FlushEvery), nil
}

func newHandler(sink appender, flushEvery time.Duration) *Handler {
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	c := &core{ch: make(chan []byte, 1024), done: make(chan struct{})}
	h := &Handler{sink: sink, core: c}
	go h.loop(flushEvery)
	return h
}

// Close stops accepting records and flushes what is buffered.
func (h *Handler) Close() error {
	h.core.once.Do(func() {
		h.core.mu.Lock()
		h.core.closed = true
		close(h.core.ch)
		h.core.mu.Unlock()
	})
	<-h.core.done
	return nil
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool { return l >= slog.LevelInfo }

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	ev := make(map[string]any, r.NumAttrs()+len(h.attrs)+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	for _, a := range h.attrs {
		ev[a.key] = attrValue(a.value)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev[h.prefixed(a.Key)] = attrValue(a.Value)
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	h.core.mu.RLock()
	defer h.core.mu.RUnlock()
	if h.core.closed {
		return errors.New("log sink closed")
	}
	select {
	case h.core.ch <- b.Bytes():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func attrValue(v slog.Value) any {
	v = v.Resolve()
	if v.Kind() != slog.KindGroup {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
	m := map[string]any{}
	for _, a := range v.Group() {
		m[a.Key] = attrValue(a.Value)
	}
	return m
}

func (h *Handler) prefixed(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]keyed{}, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, keyed{key: h.prefixed(a.Key), value: a.Value})
	}
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.prefixed(name)
	return &next
}

func (h *Handler) loop(flushEvery time.Duration) {
	defer close(h.core.done)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := h.sink.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "logsink: append failed, dropping %d bytes: %v\n", len(buf), err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case line, ok := <-h.core.ch:
			if !ok {
				flush()
				return
			}
			buf = append(buf, line...)
		case <-ticker.C:
			flush()
		}
	}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
