// Package identity remembers the last requester name and email used from a
// device so forms can be prefilled.  It is a convenience only and is never
// consulted when verifying a request.
package identity

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/viant/moderation/model"
)

// DefaultSize is the number of devices remembered.
const DefaultSize = 1024

// Memory is a bounded device → requester map.
type Memory struct {
	cache *lru.Cache[string, model.Requester]
}

// New creates a memory holding up to size entries.
func New(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, model.Requester](size)
	if err != nil {
		return nil, err
	}
	return &Memory{cache: cache}, nil
}

// Remember stores requester for device; blank devices and anonymous requesters are ignored.
func (m *Memory) Remember(device string, requester model.Requester) {
	device = strings.TrimSpace(device)
	requester = requester.Normalized()
	if device == "" || (requester.Name == "" && requester.Email == "") {
		return
	}
	m.cache.Add(device, requester)
}

// Recall returns the requester last remembered for device.
func (m *Memory) Recall(device string) (model.Requester, bool) {
	return m.cache.Get(strings.TrimSpace(device))
}

// Forget drops device.
func (m *Memory) Forget(device string) {
	m.cache.Remove(strings.TrimSpace(device))
}

// Len returns the number of remembered devices.
func (m *Memory) Len() int { return m.cache.Len() }
