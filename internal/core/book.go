package core

// LevelInfo is one row of a Levels() snapshot: a price and the total
// resting quantity behind it, folded across every order at that price.
type LevelInfo struct {
	Price Price
	Qty   Quantity
}

// ModifyRequest describes a replacement for a live order. The order's
// type is never part of a modify: it is carried over from the order
// being replaced (see Core.Modify).
type ModifyRequest struct {
	ID    OrderID
	Side  Side
	Price Price
	Qty   Quantity
}

// Core is a single-symbol limit order book. It holds no goroutines, no
// locks, and does no I/O; every method runs to completion on the
// caller's goroutine and is safe to call repeatedly from one goroutine
// only. Callers needing concurrent access should serialize through a
// service.Service instead of sharing a Core.
type Core struct {
	bids   *bookSide
	asks   *bookSide
	orders map[OrderID]*restingOrder
}

// NewCore returns an empty book.
func NewCore() *Core {
	return &Core{
		bids:   newBookSide(Buy),
		asks:   newBookSide(Sell),
		orders: make(map[OrderID]*restingOrder),
	}
}

func (c *Core) sideOf(s Side) *bookSide {
	if s == Buy {
		return c.bids
	}
	return c.asks
}

func validate(o Order) error {
	if o.ID == 0 {
		return ErrInvalidOrder
	}
	if o.Qty <= 0 {
		return ErrInvalidOrder
	}
	switch o.Side {
	case Buy, Sell:
	default:
		return ErrInvalidOrder
	}
	switch o.Type {
	case Market:
		// price is ignored and rewritten; nothing to validate here.
	case GoodTillCancel, FillAndKill:
		if o.Price <= 0 {
			return ErrInvalidOrder
		}
	default:
		return ErrInvalidOrder
	}
	return nil
}

// AddOrder admits a new order. It returns every trade the order caused
// and, additively, the events those trades and any resulting rest or
// removal produced.
//
// An id that already identifies a live resting order is a silent
// no-op: AddOrder returns (nil, nil, nil) and the existing order is
// left untouched. Once validated and found not to be a duplicate, a
// Market order is rewritten to a GoodTillCancel pegged at the opposite
// book's best price; if the opposite book is empty, ErrNoLiquidity is returned
// and nothing is admitted. A FillAndKill order that cannot cross at
// all on arrival is likewise a silent no-op — it never touches the
// book. Any FillAndKill residual left after matching is dropped rather
// than rested.
func (c *Core) AddOrder(o Order) ([]Trade, []Event, error) {
	if err := validate(o); err != nil {
		return nil, nil, err
	}
	if _, exists := c.orders[o.ID]; exists {
		return nil, nil, nil
	}

	if o.Type == Market {
		opposite := c.sideOf(o.Side.Opposite())
		best := opposite.best()
		if best == nil {
			return nil, nil, ErrNoLiquidity
		}
		o.Price = best.price
		o.Type = GoodTillCancel
	}

	if o.Type == FillAndKill && !c.canCross(o.Side, o.Price) {
		return nil, nil, nil
	}

	trades, events := c.match(&o)

	if o.Qty > 0 {
		if o.Type == FillAndKill {
			return trades, events, nil
		}
		c.rest(o)
		events = append(events, OrderRestedEvent{
			OrderID: o.ID,
			UserID:  o.UserID,
			Side:    o.Side,
			Price:   o.Price,
			Qty:     o.Qty,
		})
	}
	return trades, events, nil
}

// canCross reports whether an incoming order at price on side would
// match at least one unit against the opposite book as it stands.
func (c *Core) canCross(side Side, price Price) bool {
	best := c.sideOf(side.Opposite()).best()
	if best == nil {
		return false
	}
	if side == Buy {
		return price >= best.price
	}
	return price <= best.price
}

// match drains the opposite book into o, mutating o.Qty down to its
// unfilled remainder and returning every Trade and Event produced. o is
// never itself placed on the book by match; that is the caller's job.
func (c *Core) match(o *Order) ([]Trade, []Event) {
	opposite := c.sideOf(o.Side.Opposite())
	var trades []Trade
	var events []Event

	for o.Qty > 0 {
		lvl := opposite.best()
		if lvl == nil {
			break
		}
		if o.Side == Buy && o.Price < lvl.price {
			break
		}
		if o.Side == Sell && o.Price > lvl.price {
			break
		}

		for o.Qty > 0 && lvl.head != nil {
			maker := lvl.head
			fillQty := maker.qty
			if o.Qty < fillQty {
				fillQty = o.Qty
			}

			maker.qty -= fillQty
			lvl.totalQty -= fillQty
			o.Qty -= fillQty

			trades = append(trades, newTrade(o, maker, lvl.price, fillQty))
			events = append(events, TradeEvent{
				Price:        lvl.price,
				Qty:          fillQty,
				TakerSide:    o.Side,
				TakerOrderID: o.ID,
				TakerUserID:  o.UserID,
				MakerOrderID: maker.id,
				MakerUserID:  maker.userID,
			})

			if maker.qty == 0 {
				lvl.unlink(maker)
				delete(c.orders, maker.id)
				events = append(events, OrderRemovedEvent{
					OrderID: maker.id,
					UserID:  maker.userID,
					Side:    maker.side,
					Price:   maker.price,
					Reason:  RemoveReasonFilled,
				})
			} else {
				events = append(events, OrderReducedEvent{
					OrderID:   maker.id,
					UserID:    maker.userID,
					Side:      maker.side,
					Price:     maker.price,
					Delta:     -fillQty,
					Remaining: maker.qty,
				})
			}
		}
		opposite.dropIfEmpty(lvl)
	}
	return trades, events
}

func newTrade(taker *Order, maker *restingOrder, price Price, qty Quantity) Trade {
	t := Trade{}
	takerLeg := TradeSide{OrderID: taker.ID, Price: taker.Price, Qty: qty}
	makerLeg := TradeSide{OrderID: maker.id, Price: price, Qty: qty}
	if taker.Side == Buy {
		t.Bid, t.Ask = takerLeg, makerLeg
	} else {
		t.Bid, t.Ask = makerLeg, takerLeg
	}
	return t
}

// rest places the unfilled remainder of o on its own side of the book.
func (c *Core) rest(o Order) {
	ro := &restingOrder{
		id:     o.ID,
		userID: o.UserID,
		side:   o.Side,
		typ:    o.Type,
		price:  o.Price,
		qty:    o.Qty,
	}
	lvl := c.sideOf(o.Side).getOrCreate(o.Price)
	lvl.append(ro)
	c.orders[o.ID] = ro
}

// removeResting unlinks and forgets a resting order, returning the
// removal event. It does not validate that id exists; callers must
// check first.
func (c *Core) removeResting(ro *restingOrder, reason RemoveReason) Event {
	lvl := ro.level
	bs := c.sideOf(ro.side)
	removedQty := ro.qty
	lvl.unlink(ro)
	bs.dropIfEmpty(lvl)
	delete(c.orders, ro.id)
	return OrderRemovedEvent{
		OrderID:   ro.id,
		UserID:    ro.userID,
		Side:      ro.side,
		Price:     ro.price,
		Reason:    reason,
		Remaining: removedQty,
	}
}

// Cancel removes a live resting order from the book. An id that
// doesn't identify a resting order is a silent no-op: Cancel returns
// (nil, false) rather than an error.
func (c *Core) Cancel(id OrderID) (events []Event, found bool) {
	ro, ok := c.orders[id]
	if !ok {
		return nil, false
	}
	return []Event{c.removeResting(ro, RemoveReasonCanceled)}, true
}

// Modify replaces a live order with a new side, price, and quantity,
// keeping only its original type, id, and user id. This is implemented as a
// cancel followed by a fresh admission, so the replacement always
// loses its place in time priority, and — because the side is taken
// from the request rather than the original order — a modify may move
// an order from one side of the book to the other.
//
// An id that doesn't identify a resting order is a silent no-op:
// Modify returns (nil, nil, false, nil) rather than an error.
func (c *Core) Modify(req ModifyRequest) (trades []Trade, events []Event, found bool, err error) {
	existing, ok := c.orders[req.ID]
	if !ok {
		return nil, nil, false, nil
	}
	typ := existing.typ
	userID := existing.userID
	events = []Event{c.removeResting(existing, RemoveReasonCanceled)}

	trades, moreEvents, err := c.AddOrder(Order{
		ID:     req.ID,
		UserID: userID,
		Type:   typ,
		Side:   req.Side,
		Price:  req.Price,
		Qty:    req.Qty,
	})
	events = append(events, moreEvents...)
	return trades, events, true, err
}

// Levels returns a point-in-time snapshot of both ladders, ordered from
// the touch outward: bids descending by price, asks ascending.
func (c *Core) Levels() (bids, asks []LevelInfo) {
	c.bids.ascend(func(l *priceLevel) bool {
		bids = append(bids, LevelInfo{Price: l.price, Qty: l.totalQty})
		return true
	})
	c.asks.ascend(func(l *priceLevel) bool {
		asks = append(asks, LevelInfo{Price: l.price, Qty: l.totalQty})
		return true
	})
	return bids, asks
}

// Size returns the number of orders currently resting on the book.
func (c *Core) Size() int {
	return len(c.orders)
}
