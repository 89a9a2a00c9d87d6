// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// =============================================================================
// REQUEST CANCELLATION
// =============================================================================

// cancelManager holds the cancel function of the in-flight action.
// It must be held as a pointer so model copies share one mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// begin derives a request context from parent and stores its cancel
// function, cancelling whatever was stored before.
func (cm *cancelManager) begin(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = cancel
	return ctx
}

// cancel invokes the stored cancel function and forgets it.
// Safe to call multiple times or with nothing stored.
func (cm *cancelManager) cancel() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	return true
}

// done releases the stored context once its action has finished.
func (cm *cancelManager) done() {
	cm.cancel()
}

// =============================================================================
// MODEL WRAPPERS
// =============================================================================

// requestContext starts a new cancellable action context.
func (m *Model) requestContext() context.Context {
	return m.cancelMgr.begin(m.ctx)
}

// cancelRequest cancels the in-flight action, if any.
func (m *Model) cancelRequest() bool {
	return m.cancelMgr.cancel()
}
