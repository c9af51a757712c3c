package domain

// Side is the direction of an order or fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign returns +1 for BUY and -1 for SELL.
func (s Side) Sign() int64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

// Request is anything a trader may send to the matcher.
// It is sealed: only OrderIntent and CancelIntent implement it.
type Request interface {
	RequestOwner() string
	RequestID() string
	isRequest()
}

// OrderIntent is a new order. Price is ignored when Market is set.
type OrderIntent struct {
	Owner     string  `json:"owner"`
	ID        string  `json:"id"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Market    bool    `json:"market"`
	SelfTrade bool    `json:"self_trade"`
}

func (o OrderIntent) RequestOwner() string { return o.Owner }
func (o OrderIntent) RequestID() string    { return o.ID }
func (OrderIntent) isRequest()             {}

// CancelIntent removes Target from the book if it is still resting.
type CancelIntent struct {
	Owner  string `json:"owner"`
	ID     string `json:"id"`
	Target string `json:"target"`
}

func (c CancelIntent) RequestOwner() string { return c.Owner }
func (c CancelIntent) RequestID() string    { return c.ID }
func (CancelIntent) isRequest()             {}

// Fill reports an execution against one order.
// Remaining <= 0 means the parent order is fully consumed.
type Fill struct {
	OrderID   string  `json:"order_id"`
	Owner     string  `json:"owner"`
	Side      Side    `json:"side"`
	Qty       int64   `json:"qty"`
	Remaining int64   `json:"remaining"`
	Price     float64 `json:"price"`
	Market    bool    `json:"market"`
	Step      int     `json:"step"`
}

// Filled returns true if the parent order has nothing left.
func (f Fill) Filled() bool { return f.Remaining <= 0 }

// FillSink receives fills produced by a matcher. Implementations must be
// safe for a publisher running on a different goroutine than the consumer.
type FillSink interface {
	Publish(fills ...Fill)
}
