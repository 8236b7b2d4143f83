// Package report is the result board: a small topic trie through which the
// engine publishes check results and input readings, and from which the
// console and the display take them.
//
// Topics are slash-free token lists such as {"check", "rom"}. Subscriptions
// may use "+" for exactly one token and a trailing "#" for any remainder.
// A retained message is replayed to every later subscriber of its topic;
// publishing a retained nil payload clears it.
package report

import (
	"sort"
	"strings"
	"sync"
)

const (
	One  = "+"
	Rest = "#"
)

// Topic is a sequence of tokens.
type Topic []string

// T builds a topic from its tokens.
func T(tokens ...string) Topic { return Topic(tokens) }

func (t Topic) String() string { return strings.Join(t, "/") }

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

type Subscription struct {
	topic Topic
	ch    chan *Message
	b     *Board
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.b.unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok string, create bool) *node {
	if c, ok := n.children[tok]; ok || !create {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

// Board holds the trie. Subscribers get a queue of qLen messages; when a
// queue is full the oldest message is dropped.
type Board struct {
	mu   sync.Mutex
	root *node
	qLen int
}

func New(queueLen int) *Board {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Board{root: &node{}, qLen: queueLen}
}

// Publish delivers msg to every matching subscription.
func (b *Board) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var subs []*Subscription
	b.collect(b.root, msg.Topic, &subs)
	for _, s := range subs {
		deliver(s.ch, msg)
	}

	if !msg.Retained {
		return
	}
	n := b.root
	for _, tok := range msg.Topic {
		n = n.child(tok, true)
	}
	if msg.Payload == nil {
		n.retained = nil
	} else {
		n.retained = msg
	}
}

// PublishRetained is Publish for a retained payload at topic.
func (b *Board) PublishRetained(topic Topic, payload any) {
	b.Publish(&Message{Topic: topic, Payload: payload, Retained: true})
}

// collect gathers the subscriptions under n matching the concrete topic t.
func (b *Board) collect(n *node, t Topic, out *[]*Subscription) {
	if n == nil {
		return
	}
	if c := n.children[Rest]; c != nil {
		*out = append(*out, c.subs...)
	}
	if len(t) == 0 {
		*out = append(*out, n.subs...)
		return
	}
	b.collect(n.children[t[0]], t[1:], out)
	b.collect(n.children[One], t[1:], out)
}

func deliver(ch chan *Message, msg *Message) {
	select {
	case ch <- msg:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- msg
	}
}

// Subscribe registers a subscription to filter and replays matching
// retained messages in topic order.
func (b *Board) Subscribe(filter Topic) *Subscription {
	s := &Subscription{topic: filter, ch: make(chan *Message, b.qLen), b: b}
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range filter {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, s)

	for _, m := range b.match(filter) {
		deliver(s.ch, m)
	}
	return s
}

// Retained returns the retained messages matching filter, sorted by topic.
func (b *Board) Retained(filter Topic) []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.match(filter)
}

func (b *Board) match(filter Topic) []*Message {
	var out []*Message
	var walk func(n *node, f Topic)
	walk = func(n *node, f Topic) {
		if n == nil {
			return
		}
		switch {
		case len(f) == 0:
			if n.retained != nil {
				out = append(out, n.retained)
			}
		case f[0] == Rest:
			if n.retained != nil {
				out = append(out, n.retained)
			}
			for tok, c := range n.children {
				if tok != One && tok != Rest {
					walk(c, f)
				}
			}
		case f[0] == One:
			for tok, c := range n.children {
				if tok != One && tok != Rest {
					walk(c, f[1:])
				}
			}
		default:
			walk(n.children[f[0]], f[1:])
		}
	}
	walk(b.root, filter)
	sort.Slice(out, func(i, j int) bool { return out[i].Topic.String() < out[j].Topic.String() })
	return out
}

// Reset drops every retained message; subscriptions stay.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	var walk func(n *node)
	walk = func(n *node) {
		n.retained = nil
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(b.root)
}

func (b *Board) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	stack := make([]*node, 0, len(s.topic))
	for _, tok := range s.topic {
		c := n.children[tok]
		if c == nil {
			return
		}
		stack = append(stack, n)
		n = c
	}
	found := false
	for i, x := range n.subs {
		if x == s {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return
	}
	close(s.ch)

	// Prune empty nodes.
	for i := len(s.topic) - 1; i >= 0; i-- {
		parent, tok := stack[i], s.topic[i]
		c := parent.children[tok]
		if len(c.subs) != 0 || len(c.children) != 0 || c.retained != nil {
			break
		}
		delete(parent.children, tok)
	}
}
