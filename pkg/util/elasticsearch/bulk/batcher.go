// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bulk

// DefaultBatchSize is the number of actions sent with one bulk request if nothing else is configured.
const DefaultBatchSize = 500

// Batcher accumulates actions until a configured number is reached.
// It is not safe for concurrent use.
type Batcher struct {
	size    int
	actions []Action
}

// NewBatcher creates a batcher that is full after size actions.
// A size lower than 1 falls back to DefaultBatchSize.
func NewBatcher(size int) *Batcher {
	if size < 1 {
		size = DefaultBatchSize
	}
	return &Batcher{
		size:    size,
		actions: make([]Action, 0, size),
	}
}

// Append adds an action to the current batch.
func (b *Batcher) Append(a Action) {
	b.actions = append(b.actions, a)
}

// ShouldFlush is true once the current batch reached the configured size.
func (b *Batcher) ShouldFlush() bool {
	return len(b.actions) >= b.size
}

// Len returns the number of actions of the current batch.
func (b *Batcher) Len() int {
	return len(b.actions)
}

// Size returns the configured batch size.
func (b *Batcher) Size() int {
	return b.size
}

// Drain returns the current batch and starts a new empty one.
// The returned slice is owned by the caller.
func (b *Batcher) Drain() []Action {
	batch := b.actions
	b.actions = make([]Action, 0, b.size)
	return batch
}
