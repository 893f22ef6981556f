package store

import (
	"encoding/json"
	"sync"

	"github.com/deskhub-app/deskhub/internal/domain"
	log "github.com/sirupsen/logrus"
)

// Versioned is implemented by document types carrying a version tag.
type Versioned interface {
	DocVersion() int
}

// Collection is a typed view over one versioned JSON document. Every call
// performs a full read-modify-write cycle against the backend; concurrent
// writers are not merged, the last write wins. The mutex only serializes
// callers within this process.
type Collection[T Versioned] struct {
	backend Backend
	version int
	empty   func() T

	mu             sync.Mutex
	loggedReadFail bool
}

func NewCollection[T Versioned](backend Backend, version int, empty func() T) *Collection[T] {
	return &Collection[T]{
		backend: backend,
		version: version,
		empty:   empty,
	}
}

// Read returns the current document, or a version-tagged empty default when
// the document is missing, unparsable, or carries an unexpected version tag.
// Read failures never surface to the caller.
func (c *Collection[T]) Read() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// Mutate loads the document, applies fn, and persists the result. Errors
// returned by fn abort the cycle without writing; persistence failures
// propagate to the caller.
func (c *Collection[T]) Mutate(fn func(*T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.loadLocked()
	if err := fn(&doc); err != nil {
		return err
	}
	return c.persistLocked(doc)
}

func (c *Collection[T]) loadLocked() T {
	raw, found, err := c.backend.Load()
	if err != nil {
		c.warnReadLocked("read failed, starting from empty document", err)
		return c.empty()
	}
	if !found {
		return c.empty()
	}

	doc := c.empty()
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.warnReadLocked("parse failed, starting from empty document", err)
		return c.empty()
	}
	if doc.DocVersion() != c.version {
		c.warnReadLocked("unexpected document version, starting from empty document", nil)
		return c.empty()
	}
	return doc
}

func (c *Collection[T]) persistLocked(doc T) error {
	serialized, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.Internal("failed to serialize document", err)
	}
	return c.backend.Save(append(serialized, '\n'))
}

func (c *Collection[T]) warnReadLocked(message string, err error) {
	if c.loggedReadFail {
		return
	}
	c.loggedReadFail = true
	entry := log.WithField("expected_version", c.version)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(message)
}
