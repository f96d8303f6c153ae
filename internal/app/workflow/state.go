// Package workflow implements the kiosk state machine and its tick loop.
package workflow

import (
	"fmt"
	"time"
)

// StateID addresses a state in the controller's arena.
type StateID int

const (
	StateNone StateID = iota
	StateWaitingForCamera
	StateWaitingForTrigger
	StateCountdown
	StateShowPhoto
	StateFilter
	StatePrint
	StateSlideshow
	StateAdmin
)

// String returns the string representation of the state id.
func (s StateID) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateWaitingForCamera:
		return "waiting_for_camera"
	case StateWaitingForTrigger:
		return "waiting_for_trigger"
	case StateCountdown:
		return "countdown"
	case StateShowPhoto:
		return "show_photo"
	case StateFilter:
		return "filter"
	case StatePrint:
		return "print"
	case StateSlideshow:
		return "slideshow"
	case StateAdmin:
		return "admin"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// State is one phase of the workflow.
// Concrete states embed *Base and implement the phase hooks.
type State interface {
	base() *Base
	// OnEnter runs once after the state became active and was reset.
	OnEnter() error
	// OnTick runs once per frame while the state is active.
	OnTick() error
}

// Link describes a state's position in the graph.
type Link struct {
	ID      StateID
	Next    StateID
	Failure StateID // StateNone falls back to the previously active state
	Enabled bool
	Counter int // countdown length in seconds, Disabled for none
}

// Base carries what every state shares: its graph links, the enabled flag
// and the countdown.
type Base struct {
	id      StateID
	next    StateID
	failure StateID
	enabled bool
	timer   *Countdown
	c       *Controller
}

// NewBase creates the shared part of a state. onExpire may be nil.
func NewBase(link Link, onExpire func() error) *Base {
	return &Base{
		id:      link.ID,
		next:    link.Next,
		failure: link.Failure,
		enabled: link.Enabled,
		timer:   NewCountdown(link.Counter, onExpire),
	}
}

func (b *Base) base() *Base { return b }

// ID returns the state id.
func (b *Base) ID() StateID { return b.id }

// Next returns the designated next state.
func (b *Base) Next() StateID { return b.next }

// Failure returns the failure redirect state.
func (b *Base) Failure() StateID { return b.failure }

// Enabled reports whether the state takes part in the workflow.
func (b *Base) Enabled() bool { return b.enabled }

// Timer returns the state's countdown.
func (b *Base) Timer() *Countdown { return b.timer }

// Controller returns the owning controller.
func (b *Base) Controller() *Controller { return b.c }

// OnEnter is the default no-op entry hook.
func (b *Base) OnEnter() error { return nil }

// OnTick is the default no-op tick hook.
func (b *Base) OnTick() error { return nil }

// SwitchNext switches to the designated next state.
func (b *Base) SwitchNext() error { return b.c.SetState(b.next) }

// SwitchLast switches back to the previously active state.
func (b *Base) SwitchLast() error { return b.c.SetState(b.c.Last()) }

// SwitchTo switches to id.
func (b *Base) SwitchTo(id StateID) error { return b.c.SetState(id) }

// SwitchFailure switches to the failure state, or back to the previous one.
func (b *Base) SwitchFailure() error {
	if b.failure != StateNone {
		return b.c.SetState(b.failure)
	}
	return b.SwitchLast()
}

// reset re-arms the countdown and clears latched button edges.
func (b *Base) reset(now time.Time) {
	b.timer.Arm(now)
	if b.c != nil && b.c.io != nil {
		b.c.io.ResetButtonStates()
	}
}
