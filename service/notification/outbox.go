package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// OutboxSender writes each delivery as a JSON document under baseURL, for
// environments where another process relays mail.
type OutboxSender struct {
	fs      afs.Service
	baseURL string
}

// NewOutboxSender returns an outbox writer; non-URL paths are treated as local files.
func NewOutboxSender(fs afs.Service, baseURL string) (*OutboxSender, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("outbox URL was empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = url.Normalize(baseURL, file.Scheme)
	}
	return &OutboxSender{fs: fs, baseURL: baseURL}, nil
}

func (o *OutboxSender) Deliver(ctx context.Context, delivery *Delivery) error {
	data, err := json.Marshal(delivery)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%s.json", delivery.SentAt.UTC().Format("20060102T150405.000000000"), delivery.ID)
	URL := url.Join(o.baseURL, name)
	if err = o.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write outbox %s: %w", URL, err)
	}
	return nil
}
