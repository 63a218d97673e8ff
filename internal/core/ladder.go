package core

import "github.com/google/btree"

// restingOrder is one order sitting on the book. It is intrusive: it
// carries its own linked-list pointers and a back-pointer to the level
// it lives on, so removing an order (cancel or full fill) is O(1) once
// its pointer is known, and a level's totalQty can be kept current
// without walking the queue.
type restingOrder struct {
	id     OrderID
	userID UserID
	side   Side
	typ    OrderType
	price  Price
	qty    Quantity

	level *priceLevel
	prev  *restingOrder
	next  *restingOrder
}

// priceLevel is one FIFO queue of resting orders at a single price.
type priceLevel struct {
	price    Price
	head     *restingOrder
	tail     *restingOrder
	totalQty Quantity
}

func (l *priceLevel) empty() bool { return l.head == nil }

// append adds o to the back of the queue, preserving time priority.
func (l *priceLevel) append(o *restingOrder) {
	o.level = l
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.totalQty += o.qty
}

// unlink removes o from wherever it sits in the queue.
func (l *priceLevel) unlink(o *restingOrder) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.prev, o.next, o.level = nil, nil, nil
	l.totalQty -= o.qty
}

// bookSide is one half of the book: a price-ordered set of levels
// (backed by a B-tree, so level insertion and removal run in O(log L)
// and snapshots are an in-order traversal with no sort pass) plus the
// map used to reach a level by price in O(1).
type bookSide struct {
	side   Side
	levels map[Price]*priceLevel
	tree   *btree.BTreeG[*priceLevel]
}

func lessBid(a, b *priceLevel) bool { return a.price > b.price }
func lessAsk(a, b *priceLevel) bool { return a.price < b.price }

func newBookSide(side Side) *bookSide {
	less := lessAsk
	if side == Buy {
		less = lessBid
	}
	return &bookSide{
		side:   side,
		levels: make(map[Price]*priceLevel),
		tree:   btree.NewG(32, less),
	}
}

// getOrCreate returns the level at price, creating and indexing an
// empty one if it doesn't exist yet.
func (bs *bookSide) getOrCreate(price Price) *priceLevel {
	if l, ok := bs.levels[price]; ok {
		return l
	}
	l := &priceLevel{price: price}
	bs.levels[price] = l
	bs.tree.ReplaceOrInsert(l)
	return l
}

// dropIfEmpty removes an exhausted level from the ladder entirely, so
// it can never be returned by best or Levels.
func (bs *bookSide) dropIfEmpty(l *priceLevel) {
	if !l.empty() {
		return
	}
	delete(bs.levels, l.price)
	bs.tree.Delete(l)
}

// best returns the level nearest the touch (highest bid, lowest ask),
// or nil if the side is empty.
func (bs *bookSide) best() *priceLevel {
	l, ok := bs.tree.Min()
	if !ok {
		return nil
	}
	return l
}

// ascend calls fn for every level from the touch outward, stopping if
// fn returns false. Used for Levels() snapshots.
func (bs *bookSide) ascend(fn func(*priceLevel) bool) {
	bs.tree.Ascend(func(l *priceLevel) bool { return fn(l) })
}
