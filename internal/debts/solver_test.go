package debts

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestOrderBalanceMergesAndSorts(t *testing.T) {
	entries := []Entry{
		{Party: "g1", Amount: dec("-10")},
		{Party: "g1", Amount: dec("-5")},
		{Party: "g2", Amount: dec("-5")},
		{Party: "producerX", Amount: dec("20")},
	}
	debtors, creditors := OrderBalance(entries)
	if len(debtors) != 2 || len(creditors) != 1 {
		t.Fatalf("unexpected partition: %d debtors, %d creditors", len(debtors), len(creditors))
	}
	if debtors[0].Party != "g1" || !debtors[0].Amount.Equal(dec("15")) {
		t.Fatalf("g1 entries must merge to 15, got %s=%s", debtors[0].Party, debtors[0].Amount)
	}
	if debtors[1].Party != "g2" || !debtors[1].Amount.Equal(dec("5")) {
		t.Fatalf("expected g2=5 second, got %s=%s", debtors[1].Party, debtors[1].Amount)
	}
	if creditors[0].Party != "producerX" || !creditors[0].Amount.Equal(dec("20")) {
		t.Fatalf("expected producerX=20, got %s=%s", creditors[0].Party, creditors[0].Amount)
	}
}

func TestOrderBalanceDropsSettledParties(t *testing.T) {
	entries := []Entry{
		{Party: "even", Amount: dec("3")},
		{Party: "even", Amount: dec("-3")},
		{Party: "g1", Amount: dec("-1")},
		{Party: "p", Amount: dec("1")},
	}
	debtors, creditors := OrderBalance(entries)
	if len(debtors) != 1 || len(creditors) != 1 {
		t.Fatalf("zero balances must disappear: %v / %v", debtors, creditors)
	}
}

func TestCheckBalance(t *testing.T) {
	balanced := []Entry{
		{Party: "a", Amount: dec("-7.004")},
		{Party: "b", Amount: dec("7")},
	}
	if err := CheckBalance(balanced, dec("0.01")); err != nil {
		t.Fatalf("drift within epsilon must pass: %v", err)
	}
	broken := []Entry{
		{Party: "a", Amount: dec("-7")},
		{Party: "b", Amount: dec("8")},
	}
	if err := CheckBalance(broken, dec("0.01")); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}
}

func TestReduceBalanceSettlesEverything(t *testing.T) {
	entries := []Entry{
		{Party: "g1", Amount: dec("-15")},
		{Party: "g2", Amount: dec("-5")},
		{Party: "producerX", Amount: dec("20")},
	}
	debtors, creditors := OrderBalance(entries)
	transfers := ReduceBalance(debtors, creditors)

	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d: %v", len(transfers), transfers)
	}
	if transfers[0].Debtor != "g1" || !transfers[0].Amount.Equal(dec("15")) || transfers[0].Creditor != "producerX" {
		t.Fatalf("largest debtor pays first: %+v", transfers[0])
	}
	if transfers[1].Debtor != "g2" || !transfers[1].Amount.Equal(dec("5")) || transfers[1].Creditor != "producerX" {
		t.Fatalf("remaining debtor settles the rest: %+v", transfers[1])
	}

	// 原始余额不能被求解过程改掉
	if !debtors[0].Amount.Equal(dec("15")) {
		t.Fatalf("input balances must stay intact, got %s", debtors[0].Amount)
	}
}

func TestReduceBalanceTransferCountBound(t *testing.T) {
	entries := []Entry{
		{Party: "d1", Amount: dec("-4")},
		{Party: "d2", Amount: dec("-3")},
		{Party: "d3", Amount: dec("-3")},
		{Party: "c1", Amount: dec("6")},
		{Party: "c2", Amount: dec("4")},
	}
	debtors, creditors := OrderBalance(entries)
	transfers := ReduceBalance(debtors, creditors)
	if max := len(debtors) + len(creditors) - 1; len(transfers) > max {
		t.Fatalf("transfer count %d exceeds bound %d", len(transfers), max)
	}
	// 所有转账加总必须与欠款总额一致
	total := decimal.Zero
	for _, transfer := range transfers {
		total = total.Add(transfer.Amount)
	}
	if !total.Equal(dec("10")) {
		t.Fatalf("transfers must move the full 10, got %s", total)
	}
}
