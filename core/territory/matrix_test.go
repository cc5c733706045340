package territory

import "testing"

func TestTravelMinutesMatrix(t *testing.T) {
	m := New(Config{})
	if got := m.TravelMinutes("Richmond", "Richmond"); got != 0 {
		t.Fatalf("same territory should cost 0, got %d", got)
	}
	if got := m.TravelMinutes("Melbourne", "Richmond"); got != 12 {
		t.Fatalf("expected 12 got %d", got)
	}
	// Reverse direction resolves through the symmetric lookup.
	if got := m.TravelMinutes("Richmond", "Melbourne"); got != 12 {
		t.Fatalf("expected 12 got %d", got)
	}
}

func TestTravelMinutesZoneFallback(t *testing.T) {
	m := New(Config{})
	// Northcote and Brighton share no matrix entry: INNER_NORTH -> BAYSIDE.
	if got := m.TravelMinutes("Northcote", "Brighton"); got != 40 {
		t.Fatalf("expected zone estimate 40 got %d", got)
	}
	// Completely unknown suburbs land in OUTER.
	if got := m.TravelMinutes("Nowhere", "Elsewhere"); got != 25 {
		t.Fatalf("expected OUTER-OUTER estimate 25 got %d", got)
	}
}

func TestAdjacency(t *testing.T) {
	m := New(Config{Adjacent: []string{"Richmond:Brighton"}})
	if !m.Adjacent("Richmond", "Hawthorn") {
		t.Fatalf("15 minutes apart should be adjacent")
	}
	if m.Adjacent("Brunswick", "Brighton") {
		t.Fatalf("45 minutes apart should not be adjacent")
	}
	if !m.Adjacent("Richmond", "Brighton") {
		t.Fatalf("explicit pair should be adjacent regardless of distance")
	}
	if m.Adjacent("Richmond", "Richmond") {
		t.Fatalf("a territory is not adjacent to itself")
	}
}

func TestConfigOverride(t *testing.T) {
	m := New(Config{TravelMinutes: map[string]map[string]int{
		"Melbourne": {"Richmond": 99},
	}})
	if got := m.TravelMinutes("Melbourne", "Richmond"); got != 99 {
		t.Fatalf("config should override default, got %d", got)
	}
}
