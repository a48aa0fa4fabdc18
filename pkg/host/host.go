package host

import (
	"errors"

	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/view"
)

// ErrUnknownRef is returned when an edit names a ref the applier has never
// seen or has already removed.
var ErrUnknownRef = errors.New("host: unknown ref")

// Handle identifies a host object.
type Handle string

// Host is the retained structure edits are applied to.
type Host interface {
	// Materialize creates the host object for an element or text node.
	// The node is passed without children.
	Materialize(n *view.Node) (Handle, error)

	// Despawn destroys an object and every object below it.
	Despawn(h Handle) error

	// ApplyProps updates properties. Text objects receive "text".
	ApplyProps(h Handle, diff reconcile.PropDiff) error

	// SetChildren replaces the ordered child list of parent.
	SetChildren(parent Handle, children []Handle) error
}
