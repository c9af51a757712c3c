package strategy_test

import (
	"testing"

	"exchange_sim/internal/strategy"
)

func TestSMACrossStrategy(t *testing.T) {
	// Setup: Short=3, Long=5
	strat := strategy.NewSMACrossStrategy(3, 5, 100, 1000)

	// Helper to push price and check action
	push := func(price float64) []strategy.Action {
		return strat.OnMarketUpdate(strategy.View{Mid: price})
	}

	// T1-T5: All 100. Prev is set at T5, no action.
	for i := 0; i < 5; i++ {
		actions := push(100)
		if len(actions) > 0 {
			t.Errorf("T%d: Expected no actions, got %v", i, actions)
		}
	}

	// T6: 200 -> Short(3)=133.3 > Long(5)=120 => GOLDEN CROSS (BUY)
	actions := push(200)
	if len(actions) != 1 {
		t.Fatalf("T6: Expected 1 action (BUY), got %d", len(actions))
	}
	if actions[0].Type != strategy.ActionBuy || actions[0].Price != 200 || actions[0].Qty != 100 {
		t.Errorf("T6: Unexpected action %+v", actions[0])
	}

	// T7: 50 -> Short=116.7 > Long=110, still above
	actions = push(50)
	if len(actions) != 0 {
		t.Errorf("T7: Expected no actions, got %v", actions)
	}

	// T8: 10 -> Short=86.7 < Long=92 => DEAD CROSS (SELL)
	actions = push(10)
	if len(actions) != 1 {
		t.Fatalf("T8: Expected 1 action (SELL), got %d", len(actions))
	}
	if actions[0].Type != strategy.ActionSell {
		t.Errorf("T8: Expected SELL, got %s", actions[0].Type)
	}
}

func TestSMACrossStrategy_SkipsEmptyMarket(t *testing.T) {
	strat := strategy.NewSMACrossStrategy(2, 3, 100, 1000)
	for i := 0; i < 10; i++ {
		if actions := strat.OnMarketUpdate(strategy.View{}); len(actions) != 0 {
			t.Fatalf("Expected no actions on empty market, got %v", actions)
		}
	}
}

func TestSMACrossStrategy_RespectsInventoryCap(t *testing.T) {
	strat := strategy.NewSMACrossStrategy(3, 5, 100, 1000)
	for i := 0; i < 5; i++ {
		strat.OnMarketUpdate(strategy.View{Mid: 100, Inventory: 950})
	}
	if actions := strat.OnMarketUpdate(strategy.View{Mid: 200, Inventory: 950}); len(actions) != 0 {
		t.Errorf("Expected BUY to be suppressed at the cap, got %v", actions)
	}
}

func TestNewSMACrossStrategy_InvalidPeriods(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for shortPeriod >= longPeriod")
		}
	}()
	strategy.NewSMACrossStrategy(5, 5, 100, 1000)
}
