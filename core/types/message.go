package types

import "math/big"

// BankSend instructs the host bank to move native funds out of a contract.
// It is emitted as a side effect and never awaited by the emitting contract.
type BankSend struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Denom  string   `json:"denom"`
	Amount *big.Int `json:"amount"`
}

// Attribute is a key/value pair describing a state change.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the result of a single successful contract execution.
type Response struct {
	Attributes []Attribute `json:"attributes"`
	Events     []*Event    `json:"events,omitempty"`
	Messages   []BankSend  `json:"messages,omitempty"`
}

// NewResponse returns an empty response.
func NewResponse() *Response {
	return &Response{Attributes: []Attribute{}}
}

// AddAttribute appends an attribute and returns the response for chaining.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddEvent appends a typed event.
func (r *Response) AddEvent(ev *Event) *Response {
	if ev != nil {
		r.Events = append(r.Events, ev)
	}
	return r
}

// AddMessage queues an outbound bank transfer.
func (r *Response) AddMessage(msg BankSend) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

// Attribute returns the first value stored under key.
func (r *Response) Attribute(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}
