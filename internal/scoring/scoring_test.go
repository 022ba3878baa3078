package scoring

import (
	"fmt"
	"testing"
)

func TestMatchConcreteScenario(t *testing.T) {
	detected := NewSet("bell pepper", "cherry tomato", "spinach", "eggs", "cheddar cheese")
	recipe := []string{"bell pepper", "cherry tomato", "spinach", "eggs", "cheddar cheese", "olive oil", "salt", "pepper"}

	// union = 5 + olive oil(1) + salt(0.25) + pepper(0.25) = 6.5, intersection = 5
	// round(1 + 9*5/6.5) = round(7.923) = 8
	if got := Match(detected, recipe); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	tests := []struct {
		name     string
		detected Set
		recipe   []string
	}{
		{"both empty", NewSet(), nil},
		{"nil detected", nil, nil},
		{"empty detected", NewSet(), []string{"eggs", "spinach"}},
		{"empty recipe", NewSet("eggs", "spinach"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.detected, tt.recipe); got != 1 {
				t.Fatalf("expected 1, got %d", got)
			}
		})
	}
}

func TestMatchFullOverlapIsTen(t *testing.T) {
	detected := NewSet("eggs", "spinach", "salt")
	if got := Match(detected, []string{"Eggs", "SPINACH", "salt"}); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestMatchPartialOverlap(t *testing.T) {
	detected := NewSet("eggs", "spinach", "kale")
	// union 3, intersection 2 -> round(1 + 6) = 7
	if got := Match(detected, []string{"eggs", "spinach"}); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestMatchStaplesWeighLess(t *testing.T) {
	detected := NewSet("chicken", "salt", "garlic")
	withStaple := Match(detected, []string{"salt", "rice"})
	withFresh := Match(detected, []string{"garlic", "rice"})

	if withStaple != 2 {
		t.Fatalf("expected staple overlap to score 2, got %d", withStaple)
	}
	if withFresh != 4 {
		t.Fatalf("expected fresh overlap to score 4, got %d", withFresh)
	}
}

func TestMatchOliveOilIsNotAStaple(t *testing.T) {
	if IsStaple("olive oil") {
		t.Fatal("olive oil must not be a staple")
	}
	if !IsStaple("soy sauce") {
		t.Fatal("soy sauce must be a staple")
	}
}

func TestMatchIgnoresOrderAndDuplicates(t *testing.T) {
	detected := NewSet("eggs", "spinach", "feta", "onion")
	a := Match(detected, []string{"eggs", "spinach", "flour", "milk"})
	b := Match(detected, []string{"milk", "flour", "spinach", "eggs", "eggs", "EGGS"})
	if a != b {
		t.Fatalf("expected order/duplicate independence, got %d vs %d", a, b)
	}
}

func TestMatchNormalisesUnicode(t *testing.T) {
	detected := NewSet("Cafe\u0301 creme")
	if got := Match(detected, []string{"CAFÉ CREME", "sugar"}); got != 8 {
		// union 1.25, intersection 1 -> round(1 + 7.2) = 8
		t.Fatalf("expected 8, got %d", got)
	}
}

func TestMatchAlwaysInRange(t *testing.T) {
	pool := []string{"salt", "pepper", "oil", "eggs", "rice", "tofu", "soy sauce", "kale", "butter", "leek"}
	for i := range 1 << len(pool) {
		var detected, recipe []string
		for j, name := range pool {
			if i&(1<<j) != 0 {
				detected = append(detected, name)
			}
			if (i>>1)&(1<<j) != 0 {
				recipe = append(recipe, name)
			}
		}
		got := Match(NewSet(detected...), recipe)
		if got < MinScore || got > MaxScore {
			t.Fatalf("score %d out of range for detected=%v recipe=%v", got, detected, recipe)
		}
		if again := Match(NewSet(detected...), recipe); again != got {
			t.Fatalf("non-deterministic score: %d vs %d", got, again)
		}
	}
}

func ExampleMatch() {
	detected := NewSet("tomato", "basil", "mozzarella")
	fmt.Println(Match(detected, []string{"tomato", "basil", "mozzarella", "olive oil", "salt"}))
	// Output: 7
}
