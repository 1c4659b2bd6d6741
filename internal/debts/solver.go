// Package debts 是结算的收支抵消求解器：输入一份和为零的带符号账目
// （欠款为负、应收为正），输出一组尽量少的转账把所有余额清零。
// 纯函数，无任何 I/O。
package debts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrUnbalanced 账目之和超出容差，无法求解
var ErrUnbalanced = errors.New("balance does not sum to zero")

// Entry 账目条目；Amount 为负表示欠款方，为正表示应收方
type Entry struct {
	Party  string
	Amount decimal.Decimal
}

// Balance 单方余额（取绝对值后的量）
type Balance struct {
	Party  string
	Amount decimal.Decimal
}

// Transfer 一笔转账：Debtor 付给 Creditor Amount
type Transfer struct {
	Debtor   string
	Amount   decimal.Decimal
	Creditor string
}

// OrderBalance 把账目拆成欠款方与应收方两列，各自按金额从大到小排序。
// 同一方多条账目会先合并。
func OrderBalance(entries []Entry) (debtors []Balance, creditors []Balance) {
	merged := map[string]decimal.Decimal{}
	order := []string{}
	for _, entry := range entries {
		if _, ok := merged[entry.Party]; !ok {
			order = append(order, entry.Party)
		}
		merged[entry.Party] = merged[entry.Party].Add(entry.Amount)
	}
	for _, party := range order {
		amount := merged[party]
		switch {
		case amount.IsNegative():
			debtors = append(debtors, Balance{Party: party, Amount: amount.Neg()})
		case amount.IsPositive():
			creditors = append(creditors, Balance{Party: party, Amount: amount})
		}
	}
	sortByAmountDesc(debtors)
	sortByAmountDesc(creditors)
	return debtors, creditors
}

// CheckBalance 校验账目之和在容差内为零
func CheckBalance(entries []Entry, epsilon decimal.Decimal) error {
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Amount)
	}
	if sum.Abs().GreaterThan(epsilon) {
		return fmt.Errorf("%w: sum=%s", ErrUnbalanced, sum.String())
	}
	return nil
}

// ReduceBalance 贪心匹配：每轮让余额最大的欠款方付给余额最大的应收方，
// 金额取两者较小值，直到所有余额清零。转账数不超过 欠款方数+应收方数-1。
func ReduceBalance(debtors []Balance, creditors []Balance) []Transfer {
	remainingDebts := cloneBalances(debtors)
	remainingCredits := cloneBalances(creditors)

	var transfers []Transfer
	for len(remainingDebts) > 0 && len(remainingCredits) > 0 {
		sortByAmountDesc(remainingDebts)
		sortByAmountDesc(remainingCredits)
		debtor := &remainingDebts[0]
		creditor := &remainingCredits[0]

		amount := decimal.Min(debtor.Amount, creditor.Amount)
		if amount.IsPositive() {
			transfers = append(transfers, Transfer{
				Debtor:   debtor.Party,
				Amount:   amount,
				Creditor: creditor.Party,
			})
		}
		debtor.Amount = debtor.Amount.Sub(amount)
		creditor.Amount = creditor.Amount.Sub(amount)
		remainingDebts = dropSettled(remainingDebts)
		remainingCredits = dropSettled(remainingCredits)
	}
	return transfers
}

func sortByAmountDesc(balances []Balance) {
	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].Amount.GreaterThan(balances[j].Amount)
	})
}

func cloneBalances(balances []Balance) []Balance {
	cloned := make([]Balance, len(balances))
	copy(cloned, balances)
	return cloned
}

func dropSettled(balances []Balance) []Balance {
	kept := balances[:0]
	for _, b := range balances {
		if b.Amount.IsPositive() {
			kept = append(kept, b)
		}
	}
	return kept
}
