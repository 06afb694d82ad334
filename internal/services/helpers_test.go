package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"budgeteer/internal/events"
	"budgeteer/internal/expenses"
)

// fixedNow is the clock used by service tests.
var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// foodExpenses is two "Food" expenses followed by one "Transport" expense.
const foodExpenses = `[
	{"description":"Food","items":[{"name":"Bread","price":2.5,"qty":1}]},
	{"description":"Food","items":[{"name":"Milk","price":1.5,"qty":2}]},
	{"description":"Transport","items":[{"name":"Bus","price":1.0,"qty":1}]}
]`

func decodeExpenses(t *testing.T, body string) []expenses.Expense {
	t.Helper()
	var list []expenses.Expense
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("failed to decode expenses fixture: %v", err)
	}
	return list
}

// fakeFetcher serves a fixed expense list and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	list  []expenses.Expense
	calls int
}

func (f *fakeFetcher) FetchExpenses(_ context.Context, _ string) []expenses.Expense {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.list == nil {
		return []expenses.Expense{}
	}
	return f.list
}

func (f *fakeFetcher) set(list []expenses.Expense) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
