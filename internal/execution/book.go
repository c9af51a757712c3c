package execution

import (
	"container/heap"

	"exchange_sim/internal/domain"

	"github.com/shopspring/decimal"
)

// priceTicks is a price in units of TickSize.
type priceTicks int64

// TickSize is the minimum price increment.
var TickSize = decimal.New(1, -1)

func toTicks(price float64) priceTicks {
	return priceTicks(decimal.NewFromFloat(price).Div(TickSize).Round(0).IntPart())
}

func (t priceTicks) price() float64 {
	return decimal.NewFromInt(int64(t)).Mul(TickSize).InexactFloat64()
}

// restingOrder is a node in a level's FIFO queue.
type restingOrder struct {
	id    string
	owner string
	side  domain.Side
	price priceTicks
	size  int64

	level *level
	prev  *restingOrder
	next  *restingOrder
}

type level struct {
	price      priceTicks
	head, tail *restingOrder
	volume     int64
}

func (l *level) append(o *restingOrder) {
	o.level = l
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
}

func (l *level) unlink(o *restingOrder) {
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
}

// levelHeap orders levels best first: max-heap for bids, min-heap for asks.
type levelHeap struct {
	data  []*level
	index map[*level]int
	isBid bool
}

func (h *levelHeap) Len() int { return len(h.data) }
func (h *levelHeap) Less(i, j int) bool {
	if h.isBid {
		return h.data[i].price > h.data[j].price
	}
	return h.data[i].price < h.data[j].price
}
func (h *levelHeap) Swap(i, j int) {
	h.data[i], h.data[j] = h.data[j], h.data[i]
	h.index[h.data[i]] = i
	h.index[h.data[j]] = j
}
func (h *levelHeap) Push(x any) {
	l := x.(*level)
	h.data = append(h.data, l)
	h.index[l] = len(h.data) - 1
}
func (h *levelHeap) Pop() any {
	n := len(h.data)
	l := h.data[n-1]
	h.data = h.data[:n-1]
	delete(h.index, l)
	return l
}

type bookSide struct {
	levels map[priceTicks]*level
	h      *levelHeap
	depth  int64
}

func newBookSide(isBid bool) *bookSide {
	return &bookSide{
		levels: map[priceTicks]*level{},
		h:      &levelHeap{index: map[*level]int{}, isBid: isBid},
	}
}

func (bs *bookSide) best() *level {
	if len(bs.h.data) == 0 {
		return nil
	}
	return bs.h.data[0]
}

func (bs *bookSide) add(o *restingOrder) {
	l, ok := bs.levels[o.price]
	if !ok {
		l = &level{price: o.price}
		bs.levels[o.price] = l
		heap.Push(bs.h, l)
	}
	l.append(o)
	l.volume += o.size
	bs.depth += o.size
}

// remove unlinks o and drops its level when empty.
func (bs *bookSide) remove(o *restingOrder) {
	l := o.level
	if l == nil {
		return
	}
	l.volume -= o.size
	bs.depth -= o.size
	l.unlink(o)
	if l.head == nil {
		delete(bs.levels, l.price)
		if i, ok := bs.h.index[l]; ok {
			heap.Remove(bs.h, i)
		}
	}
}

// reduce takes qty from a resting order without unlinking it.
func (bs *bookSide) reduce(o *restingOrder, qty int64) {
	o.size -= qty
	o.level.volume -= qty
	bs.depth -= qty
}
