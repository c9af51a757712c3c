package strategy

// SMACrossStrategy implements a simple SMA Crossover strategy on mid prices.
// It is stateful and deterministic.
// OPTIMIZED: Uses a Ring Buffer to ensure Zero-Alloc in the hotpath.
type SMACrossStrategy struct {
	shortPeriod  int
	longPeriod   int
	qty          int64
	maxInventory int64

	// State (Ring Buffer)
	prices []float64
	head   int     // Current write position
	count  int     // Number of elements filled
	sum    float64 // Running sum for the longest period

	primed       bool
	prevShortSMA float64
	prevLongSMA  float64
}

// NewSMACrossStrategy creates a new instance.
func NewSMACrossStrategy(shortPeriod, longPeriod int, qty, maxInventory int64) *SMACrossStrategy {
	if shortPeriod <= 0 || shortPeriod >= longPeriod {
		panic("SMACrossStrategy: shortPeriod must be positive and less than longPeriod")
	}
	return &SMACrossStrategy{
		shortPeriod:  shortPeriod,
		longPeriod:   longPeriod,
		qty:          qty,
		maxInventory: maxInventory,
		prices:       make([]float64, longPeriod), // Fixed size allocation
	}
}

func (s *SMACrossStrategy) Name() string { return NameSMACross }

// OnMarketUpdate processes market updates and generates signals.
func (s *SMACrossStrategy) OnMarketUpdate(v View) []Action {
	// 1. Skip empty markets
	if v.Mid <= 0 {
		return nil
	}

	// 2. Update Price History (Ring Buffer)
	// If full, subtract the oldest value from sum before overwriting
	if s.count == s.longPeriod {
		s.sum -= s.prices[s.head] // s.head points to the oldest value when full
	}
	s.prices[s.head] = v.Mid
	s.sum += v.Mid
	s.head = (s.head + 1) % s.longPeriod
	if s.count < s.longPeriod {
		s.count++
	}

	// 3. Check if we have enough data
	if s.count < s.longPeriod {
		return nil
	}

	// 4. Calculate SMAs
	currLongSMA := s.sum / float64(s.longPeriod)
	currShortSMA := s.calculateShortSMA()

	var actions []Action

	// 5. Check for Cross
	if s.primed {
		// Golden Cross: Short goes above Long
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA && v.Inventory+s.qty <= s.maxInventory {
			actions = append(actions, Action{Type: ActionBuy, Price: v.Mid, Qty: s.qty})
		}

		// Dead Cross: Short goes below Long
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA && v.Inventory-s.qty >= -s.maxInventory {
			actions = append(actions, Action{Type: ActionSell, Price: v.Mid, Qty: s.qty})
		}
	}

	// 6. Update State
	s.primed = true
	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA

	return actions
}

// calculateShortSMA calculates the SMA for the short period using the ring buffer.
func (s *SMACrossStrategy) calculateShortSMA() float64 {
	var sum float64
	// Walk backwards from current head (which points to next write slot, so head-1 is latest)
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum += s.prices[idx]
	}
	return sum / float64(s.shortPeriod)
}
