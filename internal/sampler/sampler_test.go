package sampler

import (
	"fmt"
	"testing"
)

func TestSamplerZeroRateRecordsNothing(t *testing.T) {
	s := New(0)
	for i := 0; i < 100; i++ {
		if s.Sample("sess-1", fmt.Sprintf("view-%d", i)) {
			t.Fatalf("rate 0 sampled view-%d", i)
		}
	}
}

func TestSamplerFullRateRecordsEverything(t *testing.T) {
	s := New(100)
	for i := 0; i < 100; i++ {
		if !s.Sample("sess-1", fmt.Sprintf("view-%d", i)) {
			t.Fatalf("rate 100 rejected view-%d", i)
		}
	}
}

func TestSamplerIsDeterministicWithinSession(t *testing.T) {
	s := New(50)
	for i := 0; i < 100; i++ {
		view := fmt.Sprintf("view-%d", i)
		first := s.Sample("sess-1", view)
		for j := 0; j < 10; j++ {
			if s.Sample("sess-1", view) != first {
				t.Fatalf("decision for %s changed between calls", view)
			}
		}
	}
}

func TestSamplerDecisionStableAcrossInstances(t *testing.T) {
	a := New(37.5)
	b := New(37.5)
	for i := 0; i < 200; i++ {
		view := fmt.Sprintf("view-%d", i)
		if a.Sample("sess-1", view) != b.Sample("sess-1", view) {
			t.Fatalf("instances disagree on %s", view)
		}
	}
}

func TestSamplerDecisionVariesAcrossSessions(t *testing.T) {
	// A view excluded in one session must still be recordable in others:
	// the decision belongs to the session, not to the view name.
	s := New(50)
	for i := 0; i < 20; i++ {
		view := fmt.Sprintf("view-%d", i)
		sampled, rejected := 0, 0
		for j := 0; j < 1000; j++ {
			if s.Sample(fmt.Sprintf("sess-%d", j), view) {
				sampled++
			} else {
				rejected++
			}
		}
		if sampled == 0 || rejected == 0 {
			t.Fatalf("%s got a permanent decision across 1000 sessions (sampled=%d)", view, sampled)
		}
		// Across many sessions each view should land near the rate.
		if sampled < 400 || sampled > 600 {
			t.Errorf("%s sampled in %d of 1000 sessions at rate 50", view, sampled)
		}
	}
}

func TestSamplerRateRoughlyHonored(t *testing.T) {
	s := New(50)
	hits := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if s.Sample("sess-1", fmt.Sprintf("view-%d", i)) {
			hits++
		}
	}
	// Hash-derived buckets over many distinct views should land near the
	// configured rate. Wide tolerance keeps this stable.
	if hits < n*40/100 || hits > n*60/100 {
		t.Errorf("rate 50 sampled %d of %d views", hits, n)
	}
}

func TestSamplerSeparatesSessionAndViewKey(t *testing.T) {
	// Bare concatenation would make ("sess-a", "bX") and ("sess-ab", "X")
	// the same key and force their decisions to always agree.
	s := New(50)
	same := 0
	for i := 0; i < 1000; i++ {
		suffix := fmt.Sprintf("view-%d", i)
		if s.Sample("sess-a", "b"+suffix) == s.Sample("sess-ab", suffix) {
			same++
		}
	}
	if same == 1000 {
		t.Error("shifted session/view boundaries always agree, key is ambiguous")
	}
}

func TestSamplerClampsRate(t *testing.T) {
	if got := New(-5).Rate(); got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
	if got := New(150).Rate(); got != 100 {
		t.Errorf("expected clamp to 100, got %v", got)
	}
}
