// Package catalog holds the in-memory registry of extracurricular activities
// and their participant rosters.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("Activity not found")
	// ErrAlreadySignedUp is returned when the email is already on the roster.
	ErrAlreadySignedUp = errors.New("Student is already signed up for this activity")
	// ErrNotSignedUp is returned when unregistering an email that is not on the roster.
	ErrNotSignedUp = errors.New("Student is not signed up for this activity")
)

// Activity is a single extracurricular offering. MaxParticipants is advisory
// and is not enforced at signup.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func (a Activity) clone() Activity {
	cp := a
	cp.Participants = slices.Clone(a.Participants)
	if cp.Participants == nil {
		cp.Participants = []string{}
	}
	return cp
}

// ChangeKind identifies the roster mutation carried by a Change.
type ChangeKind string

const (
	ChangeSignup     ChangeKind = "signup"
	ChangeUnregister ChangeKind = "unregister"
)

// Change describes a successful roster mutation. Seq increases by one with
// every mutation of the same activity, and listeners receive the changes of
// one activity in Seq order.
type Change struct {
	ID           string     `json:"id"`
	Seq          uint64     `json:"seq"`
	Kind         ChangeKind `json:"kind"`
	Activity     string     `json:"activity"`
	Email        string     `json:"email"`
	Participants []string   `json:"participants"`
	At           time.Time  `json:"at"`
}

// Listener is notified after every successful signup or unregistration.
type Listener interface {
	RosterChanged(Change)
}

// Option configures a Catalog at construction time.
type Option func(*Catalog)

// WithListener registers l to receive roster changes.
func WithListener(l Listener) Option {
	return func(c *Catalog) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

type entry struct {
	mu       sync.Mutex
	activity Activity
	seq      uint64

	// notifyMu is taken before mu is released so listeners observe
	// mutations of this entry in the order they happened.
	notifyMu sync.Mutex
}

// Catalog is the registry of activities. The set of activities is fixed at
// construction; only rosters change. All methods are safe for concurrent use.
// Roster mutations are serialised per activity, so signups for different
// activities never contend.
type Catalog struct {
	entries   map[string]*entry
	listeners []Listener
	now       func() time.Time
}

// New builds a catalog from seed. A name that appears more than once keeps
// its first definition.
func New(seed []Activity, opts ...Option) *Catalog {
	c := &Catalog{
		entries: make(map[string]*entry, len(seed)),
		now:     time.Now,
	}
	for _, a := range seed {
		if _, exists := c.entries[a.Name]; exists {
			continue
		}
		c.entries[a.Name] = &entry{activity: a.clone()}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of activities.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// List returns every activity keyed by name. The result is a copy and may be
// modified freely by the caller.
func (c *Catalog) List() map[string]Activity {
	out := make(map[string]Activity, len(c.entries))
	for name, e := range c.entries {
		e.mu.Lock()
		out[name] = e.activity.clone()
		e.mu.Unlock()
	}
	return out
}

// Get returns a copy of the named activity.
func (c *Catalog) Get(name string) (Activity, error) {
	e, ok := c.entries[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.clone(), nil
}

// Signup appends email to the roster of the named activity and returns an
// acknowledgment message. The email is treated as an opaque identifier.
func (c *Catalog) Signup(name, email string) (string, error) {
	e, ok := c.entries[name]
	if !ok {
		return "", ErrActivityNotFound
	}

	e.mu.Lock()
	if slices.Contains(e.activity.Participants, email) {
		e.mu.Unlock()
		return "", ErrAlreadySignedUp
	}
	e.activity.Participants = append(e.activity.Participants, email)
	c.commit(e, ChangeSignup, email)
	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the roster of the named activity, keeping the
// remaining participants in signup order.
func (c *Catalog) Unregister(name, email string) (string, error) {
	e, ok := c.entries[name]
	if !ok {
		return "", ErrActivityNotFound
	}

	e.mu.Lock()
	idx := slices.Index(e.activity.Participants, email)
	if idx < 0 {
		e.mu.Unlock()
		return "", ErrNotSignedUp
	}
	e.activity.Participants = slices.Delete(e.activity.Participants, idx, idx+1)
	c.commit(e, ChangeUnregister, email)
	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}

// commit releases e.mu, which the caller holds after mutating the roster,
// and delivers the resulting change to the listeners.
func (c *Catalog) commit(e *entry, kind ChangeKind, email string) {
	e.seq++
	change := Change{
		Seq:          e.seq,
		Kind:         kind,
		Activity:     e.activity.Name,
		Email:        email,
		Participants: slices.Clone(e.activity.Participants),
	}
	if len(c.listeners) == 0 {
		e.mu.Unlock()
		return
	}

	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	change.ID = uuid.NewString()
	change.At = c.now().UTC()
	for _, l := range c.listeners {
		l.RosterChanged(change)
	}
}
