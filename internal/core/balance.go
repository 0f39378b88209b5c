package core

// Balance helpers compute a member's financial position from the splits that
// reference them. IsPaid partitions a split set totally: every split is
// either paid or outstanding, so OutstandingAmount + PaidAmount always
// equals TotalShare.

// OutstandingAmount sums the unpaid split amounts.
func OutstandingAmount(splits []Split) Money {
	var cents int64
	for _, s := range splits {
		if !s.IsPaid {
			cents += s.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// PaidAmount sums the paid split amounts.
func PaidAmount(splits []Split) Money {
	var cents int64
	for _, s := range splits {
		if s.IsPaid {
			cents += s.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// TotalShare sums all split amounts regardless of payment state.
func TotalShare(splits []Split) Money {
	var cents int64
	for _, s := range splits {
		cents += s.Amount.Cents
	}
	return Money{Cents: cents}
}
