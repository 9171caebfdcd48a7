package idgen

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewFunc returns a random identifier; challenges and claim tokens use it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// SortableFunc returns a time ordered identifier; moderation items use it so
// that ids sort by submission time.
var SortableFunc = func() string { return ksuid.New().String() }

// NewSortable returns a K-sortable identifier.
func NewSortable() string { return SortableFunc() }
