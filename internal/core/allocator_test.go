package core

import (
	"errors"
	"testing"
)

func shareSum(shares []SplitShare) int64 {
	var sum int64
	for _, s := range shares {
		sum += s.Amount.Cents
	}
	return sum
}

func TestAllocateEqualSumInvariant(t *testing.T) {
	cases := []struct {
		name         string
		cents        int64
		participants []int64
	}{
		{"rent three ways", 180000, []int64{1, 2, 3}},
		{"groceries two ways", 15688, []int64{1, 2}},
		{"uneven cents", 10000, []int64{1, 2, 3}},
		{"single participant", 5000, []int64{7}},
		{"seven ways", 9999, []int64{1, 2, 3, 4, 5, 6, 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := AllocateEqual(Money{Cents: tc.cents}, tc.participants, tc.participants[0])
			if err != nil {
				t.Fatalf("AllocateEqual: %v", err)
			}
			if len(shares) != len(tc.participants) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tc.participants))
			}
			if got := shareSum(shares); got != tc.cents {
				t.Fatalf("shares sum to %d cents, want %d", got, tc.cents)
			}
		})
	}
}

func TestAllocateEqualRounding(t *testing.T) {
	// 100.00 three ways: settling participant absorbs the extra cent.
	shares, err := AllocateEqual(Money{Cents: 10000}, []int64{1, 2, 3}, 1)
	if err != nil {
		t.Fatalf("AllocateEqual: %v", err)
	}
	if shares[0].Amount.Cents != 3334 {
		t.Fatalf("settling share = %d, want 3334", shares[0].Amount.Cents)
	}
	if shares[1].Amount.Cents != 3333 || shares[2].Amount.Cents != 3333 {
		t.Fatalf("other shares = %d, %d, want 3333 each", shares[1].Amount.Cents, shares[2].Amount.Cents)
	}
}

func TestAllocateEqualExactDivision(t *testing.T) {
	shares, err := AllocateEqual(Money{Cents: 180000}, []int64{1, 2, 3}, 1)
	if err != nil {
		t.Fatalf("AllocateEqual: %v", err)
	}
	for i, s := range shares {
		if s.Amount.Cents != 60000 {
			t.Fatalf("share %d = %d cents, want 60000", i, s.Amount.Cents)
		}
	}
}

func TestAllocateEqualCreatorPaid(t *testing.T) {
	shares, err := AllocateEqual(Money{Cents: 15688}, []int64{1, 2}, 1)
	if err != nil {
		t.Fatalf("AllocateEqual: %v", err)
	}
	if !shares[0].IsPaid {
		t.Fatal("creator's share should start paid")
	}
	if shares[1].IsPaid {
		t.Fatal("other shares should start unpaid")
	}
	if shares[0].Amount.Cents != 7844 || shares[1].Amount.Cents != 7844 {
		t.Fatalf("shares = %d, %d, want 7844 each", shares[0].Amount.Cents, shares[1].Amount.Cents)
	}
}

func TestAllocateEqualCreatorNotParticipant(t *testing.T) {
	// Creator absent from the split set: first participant settles, nobody
	// starts paid.
	shares, err := AllocateEqual(Money{Cents: 10000}, []int64{2, 3, 4}, 1)
	if err != nil {
		t.Fatalf("AllocateEqual: %v", err)
	}
	if shares[0].Amount.Cents != 3334 {
		t.Fatalf("first share = %d, want 3334", shares[0].Amount.Cents)
	}
	for i, s := range shares {
		if s.IsPaid {
			t.Fatalf("share %d should start unpaid", i)
		}
	}
}

func TestAllocateEqualTinyAmount(t *testing.T) {
	// 0.05 among ten people: every rounded per-head cent times nine already
	// exceeds the total, so the residual would be negative.
	participants := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	_, err := AllocateEqual(Money{Cents: 5}, participants, 1)
	if !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall, got %v", err)
	}

	// One cent per head is fine when there are exactly that many heads.
	shares, err := AllocateEqual(Money{Cents: 10}, participants, 1)
	if err != nil {
		t.Fatalf("AllocateEqual: %v", err)
	}
	for i, s := range shares {
		if s.Amount.Cents != 1 {
			t.Fatalf("share %d = %d cents, want 1", i, s.Amount.Cents)
		}
	}
}

func TestAllocateEqualValidation(t *testing.T) {
	cases := []struct {
		name         string
		cents        int64
		participants []int64
	}{
		{"empty participants", 10000, nil},
		{"duplicate participant", 10000, []int64{1, 2, 1}},
		{"zero amount", 0, []int64{1, 2}},
		{"negative amount", -100, []int64{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AllocateEqual(Money{Cents: tc.cents}, tc.participants, 1)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAllocateCustom(t *testing.T) {
	shares, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
		map[int64]Money{1: {Cents: 4000}, 2: {Cents: 6000}}, 1)
	if err != nil {
		t.Fatalf("AllocateCustom: %v", err)
	}
	if shares[0].Amount.Cents != 4000 || shares[1].Amount.Cents != 6000 {
		t.Fatalf("shares = %d, %d, want 4000, 6000", shares[0].Amount.Cents, shares[1].Amount.Cents)
	}
	if !shares[0].IsPaid || shares[1].IsPaid {
		t.Fatal("only the creator's share should start paid")
	}
}

func TestAllocateCustomTotalMismatch(t *testing.T) {
	_, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
		map[int64]Money{1: {Cents: 4000}, 2: {Cents: 5000}}, 1)
	if !errors.Is(err, ErrSplitTotalMismatch) {
		t.Fatalf("expected split total mismatch, got %v", err)
	}
}

func TestAllocateCustomTolerance(t *testing.T) {
	// One cent off in either direction passes; the values are kept as given.
	for _, cents := range []int64{9999, 10001} {
		shares, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
			map[int64]Money{1: {Cents: cents - 5000}, 2: {Cents: 5000}}, 1)
		if err != nil {
			t.Fatalf("sum %d should pass tolerance: %v", cents, err)
		}
		if got := shareSum(shares); got != cents {
			t.Fatalf("shares redistributed: sum %d, want %d", got, cents)
		}
	}
}

func TestAllocateCustomValidation(t *testing.T) {
	t.Run("missing participant amount", func(t *testing.T) {
		_, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
			map[int64]Money{1: {Cents: 10000}}, 1)
		if !errors.Is(err, ErrMissingSplitAmount) {
			t.Fatalf("expected missing split amount, got %v", err)
		}
	})
	t.Run("amount for unknown participant", func(t *testing.T) {
		_, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
			map[int64]Money{1: {Cents: 5000}, 2: {Cents: 5000}, 9: {Cents: 0}}, 1)
		if !errors.Is(err, ErrUnknownParticipant) {
			t.Fatalf("expected unknown participant, got %v", err)
		}
	})
	t.Run("negative share", func(t *testing.T) {
		_, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
			map[int64]Money{1: {Cents: -100}, 2: {Cents: 10100}}, 1)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
	t.Run("zero share allowed", func(t *testing.T) {
		if _, err := AllocateCustom(Money{Cents: 10000}, []int64{1, 2},
			map[int64]Money{1: {Cents: 0}, 2: {Cents: 10000}}, 1); err != nil {
			t.Fatalf("zero share should be allowed: %v", err)
		}
	})
}
