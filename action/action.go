/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"context"
	"sync"
)

// Event is a tracker event returned by an action (e.g. {"event": "slot", "name": "city", "value": "Berlin"}).
type Event map[string]interface{}

// SlotSet returns an event that sets the slot value.
func SlotSet(name string, value interface{}) Event {
	return Event{"event": "slot", "name": name, "value": value}
}

// BotMessage is a message that the assistant sends back to the user.
type BotMessage map[string]interface{}

// Request is an incoming webhook call that asks to run the next action.
type Request struct {
	NextAction string                 `json:"next_action"`
	SenderID   string                 `json:"sender_id"`
	Tracker    map[string]interface{} `json:"tracker"`
	Domain     map[string]interface{} `json:"domain"`
	Version    string                 `json:"version"`
}

// Slot returns the value of the slot from the tracker.
func (r *Request) Slot(name string) (interface{}, bool) {
	slots, ok := r.Tracker["slots"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	val, ok := slots[name]
	return val, ok
}

// Response is a result of the executed action.
type Response struct {
	Events    []Event      `json:"events"`
	Responses []BotMessage `json:"responses"`
}

// Action is a user-defined action that may be executed by the action server.
type Action interface {
	Name() string
	Run(ctx context.Context, dispatcher *Dispatcher, req *Request) ([]Event, error)
}

// RunFunc is a signature of the function that implements the action logic.
type RunFunc func(ctx context.Context, dispatcher *Dispatcher, req *Request) ([]Event, error)

// Func is an adapter to allow the use of ordinary functions as Action.
type Func struct {
	name string
	run  RunFunc
}

// NewFunc creates a new action with the given name.
func NewFunc(name string, run RunFunc) *Func {
	return &Func{name: name, run: run}
}

// Name returns the action name.
func (f *Func) Name() string {
	return f.name
}

// Run calls the underlying function.
func (f *Func) Run(ctx context.Context, dispatcher *Dispatcher, req *Request) ([]Event, error) {
	return f.run(ctx, dispatcher, req)
}

// Dispatcher collects the messages that an action wants to send back to the user.
type Dispatcher struct {
	mu       sync.Mutex
	messages []BotMessage
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Utter sends a text message.
func (d *Dispatcher) Utter(text string) {
	d.UtterMessage(BotMessage{"text": text})
}

// UtterResponse sends a response defined in the domain by its name.
// Additional values may be used by the assistant for filling the response template.
func (d *Dispatcher) UtterResponse(name string, values map[string]interface{}) {
	msg := BotMessage{"response": name, "template": name}
	for k, v := range values {
		msg[k] = v
	}
	d.UtterMessage(msg)
}

// UtterCustom sends a custom JSON payload.
func (d *Dispatcher) UtterCustom(payload map[string]interface{}) {
	d.UtterMessage(BotMessage{"custom": payload})
}

// UtterMessage sends a raw message.
func (d *Dispatcher) UtterMessage(msg BotMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
}

// Messages returns all collected messages.
func (d *Dispatcher) Messages() []BotMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]BotMessage{}, d.messages...)
}
