package out

import (
	"sync"

	"watchtrack/internal/modules/tracker/dto"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	apperrors "watchtrack/internal/platform/errors"
)

const outboxLimit = 256

// PageOutbox buffers directives until the page script polls for them. When
// the page stops polling the oldest directives are dropped first.
type PageOutbox struct {
	mu           sync.Mutex
	pending      []dto.Directive
	capabilities map[string]struct{}
}

var _ trackerout.PageControl = (*PageOutbox)(nil)

func NewPageOutbox() *PageOutbox {
	return &PageOutbox{capabilities: map[string]struct{}{}}
}

func (o *PageOutbox) SetCapabilities(capabilities []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.capabilities = make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		o.capabilities[c] = struct{}{}
	}
}

func (o *PageOutbox) LockKeyboard() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.capabilities[dto.CapabilityKeyboardLock]; !ok {
		return apperrors.ErrUnsupported
	}
	o.push(dto.Directive{Action: dto.DirectiveLockKeyboard})
	return nil
}

func (o *PageOutbox) Publish(directive dto.Directive) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.push(directive)
}

func (o *PageOutbox) Drain() []dto.Directive {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.pending
	o.pending = nil
	return out
}

func (o *PageOutbox) push(directive dto.Directive) {
	// collapse counter refreshes; only the latest text matters
	if n := len(o.pending); n > 0 && directive.Action == dto.DirectiveUpdateCounter && o.pending[n-1].Action == dto.DirectiveUpdateCounter {
		o.pending[n-1] = directive
		return
	}
	if len(o.pending) >= outboxLimit {
		o.pending = o.pending[1:]
	}
	o.pending = append(o.pending, directive)
}
