package flow

import (
	"errors"
	"sync"
)

// Document names a disclosure that must be read before its stage can be left.
type Document string

const (
	DocAssessment Document = "assessment"
	DocAgreement  Document = "agreement"
)

func (d Document) Valid() bool {
	return d == DocAssessment || d == DocAgreement
}

// EndTolerance is how close, in pixels, the bottom of the viewport must come
// to the end of the content to count as read.
const EndTolerance = 20

var ErrNotRead = errors.New("read the document to the end before acknowledging it")

// Viewport is the scroll geometry reported by the client rendering a
// document.
type Viewport struct {
	ScrollTop    float64 `json:"scrollTop"`
	ClientHeight float64 `json:"clientHeight"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// Measured reports whether v describes rendered content: no negative
// dimension and a non-empty viewport and content.
func (v Viewport) Measured() bool {
	return v.ScrollTop >= 0 && v.ClientHeight > 0 && v.ScrollHeight > 0
}

// Fits reports whether the content needs no scrolling at all.
func (v Viewport) Fits() bool {
	return v.ScrollHeight <= v.ClientHeight+1
}

// AtEnd reports whether the viewport is within EndTolerance of the bottom.
func (v Viewport) AtEnd() bool {
	return v.ScrollTop+v.ClientHeight >= v.ScrollHeight-EndTolerance
}

type GateStatus struct {
	ReachedEnd   bool `json:"reachedEnd"`
	Acknowledged bool `json:"acknowledged"`
	Ready        bool `json:"ready"`
}

// ReadGate holds the two session-local booleans guarding a document: it has
// been read to the end at least once, and the user has acknowledged it.
// Neither is persisted.
type ReadGate struct {
	mu           sync.Mutex
	reachedEnd   bool
	acknowledged bool
}

// Observe re-evaluates the gate against new scroll or size measurements.
// Reaching the end is sticky. Unmeasured viewports are ignored.
func (g *ReadGate) Observe(v Viewport) GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	if v.Measured() && (v.Fits() || v.AtEnd()) {
		g.reachedEnd = true
	}

	return g.statusLocked()
}

// MarkReachedEnd records that the client saw the end of the document by its
// own means, such as an intersection observer on the last paragraph.
func (g *ReadGate) MarkReachedEnd() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reachedEnd = true
	return g.statusLocked()
}

// Acknowledge sets the checkbox. It stays disabled until the end has been
// reached; clearing it is always allowed.
func (g *ReadGate) Acknowledge(checked bool) (GateStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if checked && !g.reachedEnd {
		return g.statusLocked(), ErrNotRead
	}

	g.acknowledged = checked
	return g.statusLocked(), nil
}

func (g *ReadGate) Status() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.statusLocked()
}

func (g *ReadGate) Ready() bool {
	return g.Status().Ready
}

func (g *ReadGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reachedEnd = false
	g.acknowledged = false
}

func (g *ReadGate) statusLocked() GateStatus {
	return GateStatus{
		ReachedEnd:   g.reachedEnd,
		Acknowledged: g.acknowledged,
		Ready:        g.reachedEnd && g.acknowledged,
	}
}
