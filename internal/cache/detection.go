package cache

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
)

// Store is the subset of the go-zero redis client the detection cache needs.
// A miss is reported as an empty value with a nil error.
type Store interface {
	GetCtx(ctx context.Context, key string) (string, error)
	SetexCtx(ctx context.Context, key, value string, seconds int) error
}

type detectionEntry struct {
	Raw      string         `msgpack:"raw"`
	Fields   rooftop.Fields `msgpack:"fields"`
	Source   string         `msgpack:"source"`
	Model    string         `msgpack:"model"`
	CachedAt int64          `msgpack:"cached_at"`
}

// CachedDetector serves repeat images from Redis. Only successful
// extractions are stored; failures always reach the wrapped detector.
type CachedDetector struct {
	next  rooftop.Detector
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedDetector wraps next. A nil store or non-positive ttl disables caching.
func NewCachedDetector(next rooftop.Detector, store Store, ttl time.Duration) *CachedDetector {
	return &CachedDetector{next: next, store: store, ttl: ttl, now: time.Now}
}

// Model returns the wrapped detector's model.
func (c *CachedDetector) Model() string { return c.next.Model() }

// Detect returns the cached detection for img when present, otherwise calls
// the wrapped detector and stores a successful result. Cache errors are
// logged and never fail the call.
func (c *CachedDetector) Detect(ctx context.Context, img imagery.Image) (*rooftop.Detection, error) {
	if !c.enabled() || img.Digest == "" {
		return c.next.Detect(ctx, img)
	}
	key := DetectionKey(img.Digest, c.next.Model())

	if det, ok := c.lookup(ctx, key); ok {
		logx.WithContext(ctx).Debugf("detection cache hit: %s", key)
		return det, nil
	}

	det, err := c.next.Detect(ctx, img)
	if err != nil || !det.OK() {
		return det, err
	}
	c.save(ctx, key, det)
	return det, nil
}

func (c *CachedDetector) enabled() bool {
	return c.store != nil && c.ttl > 0
}

func (c *CachedDetector) lookup(ctx context.Context, key string) (*rooftop.Detection, bool) {
	val, err := c.store.GetCtx(ctx, key)
	if err != nil {
		logx.WithContext(ctx).Errorf("get cache %s: %v", key, err)
		return nil, false
	}
	if val == "" {
		return nil, false
	}
	var entry detectionEntry
	if err := msgpack.Unmarshal([]byte(val), &entry); err != nil {
		logx.WithContext(ctx).Errorf("decode cache %s: %v", key, err)
		return nil, false
	}
	if entry.Fields == nil {
		return nil, false
	}
	return &rooftop.Detection{
		Raw:    entry.Raw,
		Fields: entry.Fields,
		Source: rooftop.SourceCache,
		Model:  entry.Model,
	}, true
}

func (c *CachedDetector) save(ctx context.Context, key string, det *rooftop.Detection) {
	payload, err := msgpack.Marshal(detectionEntry{
		Raw:      det.Raw,
		Fields:   det.Fields,
		Source:   det.Source,
		Model:    det.Model,
		CachedAt: c.now().Unix(),
	})
	if err != nil {
		logx.WithContext(ctx).Errorf("encode cache %s: %v", key, err)
		return
	}
	seconds := int(c.ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	if err := c.store.SetexCtx(ctx, key, string(payload), seconds); err != nil {
		logx.WithContext(ctx).Errorf("set cache %s: %v", key, err)
	}
}
