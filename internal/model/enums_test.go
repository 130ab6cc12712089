package model

import "testing"

func TestParseDietType(t *testing.T) {
	for _, dt := range DietTypes() {
		got, err := ParseDietType(string(dt))
		if err != nil {
			t.Errorf("ParseDietType(%q): %v", dt, err)
		}
		if got != dt {
			t.Errorf("ParseDietType(%q) = %q", dt, got)
		}
	}
	for _, bad := range []string{"", "carnivore", "KETO", "low-carb"} {
		if _, err := ParseDietType(bad); err == nil {
			t.Errorf("ParseDietType(%q) accepted", bad)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, st := range OrderStatuses() {
		if _, err := ParseOrderStatus(string(st)); err != nil {
			t.Errorf("ParseOrderStatus(%q): %v", st, err)
		}
	}
	for _, bad := range []string{"", "Pending", "shipped", "canceled"} {
		if _, err := ParseOrderStatus(bad); err == nil {
			t.Errorf("ParseOrderStatus(%q) accepted", bad)
		}
	}
}

func TestOrderStatusesStableOrder(t *testing.T) {
	want := []OrderStatus{OrderPending, OrderConfirmed, OrderPreparing, OrderDelivered, OrderCancelled}
	got := OrderStatuses()
	if len(got) != len(want) {
		t.Fatalf("got %d statuses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("status[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseIngredientUnit(t *testing.T) {
	for _, u := range []string{"tbsp", "g", "piece", "l"} {
		if _, err := ParseIngredientUnit(u); err != nil {
			t.Errorf("ParseIngredientUnit(%q): %v", u, err)
		}
	}
	for _, bad := range []string{"", "kg", "grams", "G"} {
		if _, err := ParseIngredientUnit(bad); err == nil {
			t.Errorf("ParseIngredientUnit(%q) accepted", bad)
		}
	}
}
