package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"matchbook/internal/core"
)

type cmdType uint8

const (
	cmdAdd cmdType = iota
	cmdCancel
	cmdModify
	cmdLevels
	cmdSize
)

type command struct {
	typ      cmdType
	order    core.Order
	cancelID core.OrderID
	modify   core.ModifyRequest
	respCh   chan response
}

type response struct {
	trades []core.Trade
	events []core.Event
	bids   []core.LevelInfo
	asks   []core.LevelInfo
	size   int
	found  bool
	err    error
}

// Service serializes concurrent callers onto a single core.Core by
// funneling every request through one command channel and one
// processing goroutine. A caller never touches the Core directly, so
// the Core itself stays free of any locking.
type Service struct {
	cfg  Config
	core *core.Core
	tape *tradeTape

	cmdCh          chan command
	internalEvents chan core.Event
	externalEvents chan core.Event

	droppedExternal atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService constructs a Service around a fresh, empty book and starts
// its worker goroutines. Callers must Close it when done.
func NewService(cfg Config) *Service {
	s := &Service{
		cfg:            cfg,
		core:           core.NewCore(),
		tape:           newTradeTape(cfg.TradeTapeSize),
		cmdCh:          make(chan command, cfg.CommandBuffer),
		internalEvents: make(chan core.Event, cfg.EventBuffer),
		externalEvents: make(chan core.Event, cfg.ExternalEventBuffer),
		closed:         make(chan struct{}),
	}
	s.wg.Add(2)
	go s.runCommandProcessor()
	go s.runEventDispatcher()
	return s
}

func (s *Service) runCommandProcessor() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		}
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response
	switch cmd.typ {
	case cmdAdd:
		resp.trades, resp.events, resp.err = s.core.AddOrder(cmd.order)
	case cmdCancel:
		resp.events, resp.found = s.core.Cancel(cmd.cancelID)
	case cmdModify:
		resp.trades, resp.events, resp.found, resp.err = s.core.Modify(cmd.modify)
	case cmdLevels:
		resp.bids, resp.asks = s.core.Levels()
	case cmdSize:
		resp.size = s.core.Size()
	}
	for _, tr := range resp.trades {
		s.tape.append(tr)
	}
	for _, ev := range resp.events {
		s.emitEvent(ev)
	}
	cmd.respCh <- resp
}

// emitEvent forwards ev to the dispatcher without ever blocking the
// command processor: the internal channel is sized for the expected
// event volume per command, and if it is full ev is dropped without
// being counted in DroppedExternalEvents.
func (s *Service) emitEvent(ev core.Event) {
	select {
	case s.internalEvents <- ev:
	default:
	}
}

func (s *Service) runEventDispatcher() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case ev := <-s.internalEvents:
			if s.cfg.DropExternalEvents {
				select {
				case s.externalEvents <- ev:
				default:
					s.droppedExternal.Add(1)
				}
			} else {
				select {
				case s.externalEvents <- ev:
				case <-s.closed:
					return
				}
			}
		}
	}
}

// submit enqueues cmd and waits for its response, honoring ctx
// cancellation on both the enqueue and the wait.
func (s *Service) submit(ctx context.Context, cmd command) (response, error) {
	cmd.respCh = make(chan response, 1)
	select {
	case s.cmdCh <- cmd:
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-s.closed:
		return response{}, fmt.Errorf("service: closed")
	}
	select {
	case resp := <-cmd.respCh:
		return resp, nil
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-s.closed:
		return response{}, fmt.Errorf("service: closed")
	}
}

// AddOrder admits o against the book, serialized with every other
// caller. See core.Core.AddOrder for matching semantics.
func (s *Service) AddOrder(ctx context.Context, o core.Order) ([]core.Trade, []core.Event, error) {
	resp, err := s.submit(ctx, command{typ: cmdAdd, order: o})
	if err != nil {
		return nil, nil, err
	}
	return resp.trades, resp.events, resp.err
}

// Cancel removes a resting order by id. An id that doesn't identify a
// resting order is a silent no-op: found comes back false rather than
// an error.
func (s *Service) Cancel(ctx context.Context, id core.OrderID) (events []core.Event, found bool, err error) {
	resp, err := s.submit(ctx, command{typ: cmdCancel, cancelID: id})
	if err != nil {
		return nil, false, err
	}
	return resp.events, resp.found, nil
}

// Modify replaces a resting order, losing its time priority. See
// core.Core.Modify. An id that doesn't identify a resting order is a
// silent no-op: found comes back false rather than an error.
func (s *Service) Modify(ctx context.Context, req core.ModifyRequest) (trades []core.Trade, events []core.Event, found bool, err error) {
	resp, err := s.submit(ctx, command{typ: cmdModify, modify: req})
	if err != nil {
		return nil, nil, false, err
	}
	return resp.trades, resp.events, resp.found, resp.err
}

// Levels returns a point-in-time snapshot of both ladders.
func (s *Service) Levels(ctx context.Context) (bids, asks []core.LevelInfo, err error) {
	resp, err := s.submit(ctx, command{typ: cmdLevels})
	if err != nil {
		return nil, nil, err
	}
	return resp.bids, resp.asks, nil
}

// Size returns the number of resting orders.
func (s *Service) Size(ctx context.Context) (int, error) {
	resp, err := s.submit(ctx, command{typ: cmdSize})
	if err != nil {
		return 0, err
	}
	return resp.size, nil
}

// TradesLast returns up to n of the most recently matched trades,
// oldest first. It never blocks on the command queue: the tape is only
// ever written by the command processor, so reading its length here is
// racy only in the sense of "might miss the very latest trade," never
// in the sense of corrupting data — callers wanting a consistent view
// should serialize through AddOrder's own return value instead.
func (s *Service) TradesLast(n int) []core.Trade {
	return s.tape.last(n)
}

// Events returns the channel external subscribers should read from.
// Only one logical subscriber is supported; fan the channel out
// yourself if you need more than one reader.
func (s *Service) Events() <-chan core.Event {
	return s.externalEvents
}

// DroppedExternalEvents reports how many events were discarded because
// a subscriber fell behind and DropExternalEvents was set.
func (s *Service) DroppedExternalEvents() int64 {
	return s.droppedExternal.Load()
}

// Close stops both worker goroutines and waits for them to exit. It is
// safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
