// Package session carries editor mode across page loads.
//
// A page load can request the editor through launch parameters in its
// address. Load consumes them once, records the request in the persisted
// flag store and strips them from the address, so a later reload (for
// example after an authentication redirect) finds the flag instead.
package session

import (
	"fmt"
	"net/url"

	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/store"
)

// Launch parameter names and the persisted flag key.
const (
	ParamMode    = "pagetour_mode"
	ParamVariant = "pagetour_variant"
	ModeEditor   = "editor"

	FlagEditor = "editor-variant"
)

// State is the session input the orchestrator reads at construction.
type State struct {
	// Launched is set when this load consumed launch parameters.
	Launched bool
	// Persisted is set when the editor flag survived from an earlier load.
	Persisted bool
	// Variant is the requested editor surface.
	Variant channel.Variant
}

// WantsEditor reports whether the page should start in editor mode.
func (s State) WantsEditor() bool { return s.Launched || s.Persisted }

// Provider is the session-state collaborator.
type Provider interface {
	State() State
	SetEditor(v channel.Variant) error
	ClearEditor() error
}

// Session is a Provider backed by a flag store.
type Session struct {
	flags store.Flags
	state State
}

// Load reads launch parameters from doc's address and the persisted flag
// from flags. Launch parameters win over the flag and are removed from
// the address.
func Load(doc dom.Document, flags store.Flags) (*Session, error) {
	s := &Session{flags: flags}

	if v, ok, err := consumeLaunch(doc); err != nil {
		return nil, err
	} else if ok {
		s.state = State{Launched: true, Variant: v}
		if err := flags.Set(FlagEditor, string(v)); err != nil {
			return nil, fmt.Errorf("failed to persist launch request: %w", err)
		}
		return s, nil
	}

	raw, ok, err := flags.Get(FlagEditor)
	if err != nil {
		return nil, fmt.Errorf("failed to read editor flag: %w", err)
	}
	if ok {
		v, err := channel.ParseVariant(raw)
		if err != nil {
			debug.Warn("session", "ignoring persisted editor flag: %v", err)
			v = channel.VariantGuide
		}
		s.state = State{Persisted: true, Variant: v}
	}
	return s, nil
}

// consumeLaunch strips the launch parameters from doc's address and
// returns the requested variant.
func consumeLaunch(doc dom.Document) (channel.Variant, bool, error) {
	u, err := url.Parse(doc.URL())
	if err != nil {
		debug.Warn("session", "unparseable page address %q: %v", doc.URL(), err)
		return "", false, nil
	}
	q := u.Query()
	if !q.Has(ParamMode) && !q.Has(ParamVariant) {
		return "", false, nil
	}

	mode := q.Get(ParamMode)
	name := q.Get(ParamVariant)
	q.Del(ParamMode)
	q.Del(ParamVariant)
	u.RawQuery = q.Encode()
	if err := doc.ReplaceURL(u.String()); err != nil {
		return "", false, fmt.Errorf("failed to strip launch parameters: %w", err)
	}

	if mode != ModeEditor {
		debug.Log("session", "ignoring launch mode %q", mode)
		return "", false, nil
	}
	v, err := channel.ParseVariant(name)
	if err != nil {
		debug.Warn("session", "%v; using %s", err, channel.VariantGuide)
		v = channel.VariantGuide
	}
	return v, true, nil
}

// State returns what Load found. It does not change afterwards.
func (s *Session) State() State { return s.state }

// SetEditor persists the editor flag for v.
func (s *Session) SetEditor(v channel.Variant) error {
	return s.flags.Set(FlagEditor, string(v))
}

// ClearEditor removes the editor flag.
func (s *Session) ClearEditor() error {
	return s.flags.Delete(FlagEditor)
}
