package eventbus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/metricsx"
)

// Record is one persisted event: a timestamped snapshot of the event's
// fields, one JSON object per line in the log file.
type Record struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   string         `json:"event_type"`
	EventModule string         `json:"event_module"`
	Data        map[string]any `json:"data"`
}

// DurableBus decorates any Publisher with an append-only event log.
// Every publish is serialized and appended before dispatch; log
// failures are observability losses only and never block dispatch.
type DurableBus struct {
	base   Publisher
	path   string
	mu     sync.Mutex
	logger logx.Logger
}

func NewDurable(base Publisher, path string, logger logx.Logger) (*DurableBus, error) {
	if path == "" {
		return nil, errors.New("event log path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &DurableBus{base: base, path: path, logger: logger}, nil
}

func (d *DurableBus) Publish(ctx context.Context, event Event) {
	d.append(ctx, event)
	d.base.Publish(ctx, event)
}

func (d *DurableBus) PublishAsync(ctx context.Context, event Event) {
	d.append(ctx, event)
	d.base.PublishAsync(ctx, event)
}

// Broadcast appends exactly one record before delegating both dispatch
// paths; a broadcast is one event, not two.
func (d *DurableBus) Broadcast(ctx context.Context, event Event) {
	d.append(ctx, event)
	d.base.Broadcast(ctx, event)
}

func (d *DurableBus) append(ctx context.Context, event Event) {
	line, err := marshalRecord(event)
	if err == nil {
		d.mu.Lock()
		err = appendLine(d.path, line)
		d.mu.Unlock()
	}
	if err != nil {
		metricsx.IncEventLogWriteFailure()
		d.logger.Error(ctx, "event_log_write_failed", "failed to persist event",
			slog.String("kind", event.Kind()),
			slog.String("error", err.Error()),
		)
	}
}

// Replay reads the log file oldest-first and returns parsed records,
// optionally filtered by event type name. A missing log file is an
// empty history, not an error.
func (d *DurableBus) Replay(eventFilter string) ([]Record, error) {
	f, err := os.Open(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, err
	}
	defer f.Close()

	records := make([]Record, 0, 64)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		if eventFilter == "" || rec.EventType == eventFilter {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func marshalRecord(event Event) ([]byte, error) {
	fields, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(fields, &data); err != nil {
		return nil, err
	}

	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return json.Marshal(Record{
		Timestamp:   time.Now().UTC(),
		EventType:   event.Kind(),
		EventModule: t.PkgPath(),
		Data:        data,
	})
}

func appendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
