package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/copanier-next/internal/debts"
	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"

	"github.com/shopspring/decimal"
)

// 账目容差：每个条目允许 1 分的舍入漂移
var ledgerEpsilonPerEntry = decimal.NewFromFloat(0.01)

// SettlementService 结算：把一次配送的买家应付与供应商应收
// 整理成带符号账目，再交给抵消求解器算出最少转账方案。
type SettlementService struct {
	store      *storage.DeliveryStore
	groupStore *storage.GroupStore
}

// NewSettlementService 创建结算服务
func NewSettlementService(store *storage.DeliveryStore, groupStore *storage.GroupStore) *SettlementService {
	return &SettlementService{store: store, groupStore: groupStore}
}

// Settlement 一次配送的结算结果
type Settlement struct {
	Entries    []debts.Entry     `json:"entries"`
	Debtors    []debts.Balance   `json:"debtors"`
	Creditors  []debts.Balance   `json:"creditors"`
	Transfers  []debts.Transfer  `json:"transfers"`
	PayeeNames map[string]string `json:"payee_names"`
}

// ComputePayments 计算结算方案。
// 买家按含运费总额记欠款（负）；供应商应收按收款方归并记应收（正）：
// 对接人属于某个团体时以团体为收款方，多个供应商可归并到同一收款方。
// 账目之和超出容差直接报错，绝不静默吞掉差额。
func (s *SettlementService) ComputePayments(deliveryID string) (*Settlement, error) {
	delivery, err := s.store.Load(deliveryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	groups := models.NewGroups()
	if s.groupStore != nil {
		loaded, err := s.groupStore.Load()
		if err != nil {
			return nil, err
		}
		groups = loaded
	}

	var entries []debts.Entry
	payeeNames := map[string]string{}

	buyerIDs := make([]string, 0, len(delivery.Orders))
	for buyerID := range delivery.Orders {
		buyerIDs = append(buyerIDs, buyerID)
	}
	sort.Strings(buyerIDs)
	for _, buyerID := range buyerIDs {
		total := delivery.TotalFor(buyerID)
		entries = append(entries, debts.Entry{
			Party:  buyerID,
			Amount: total.Decimal.Neg(),
		})
	}

	claims := map[string]string{}
	for _, producerID := range delivery.SortedProducerIDs() {
		producer := delivery.Producers[producerID]
		payee, name := s.resolvePayee(claims, groups, producer)
		amount := delivery.TotalForProducer(producerID, "", true)
		if amount.IsZero() {
			continue
		}
		if _, seen := payeeNames[payee]; !seen {
			payeeNames[payee] = name
		}
		entries = append(entries, debts.Entry{
			Party:  payee,
			Amount: amount.Decimal,
		})
	}

	epsilon := ledgerEpsilonPerEntry.Mul(decimal.NewFromInt(int64(len(entries))))
	if err := debts.CheckBalance(entries, epsilon); err != nil {
		logger.Errorw("settlement_ledger_imbalance", "delivery_id", delivery.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLedgerImbalance, err)
	}

	debtors, creditors := debts.OrderBalance(entries)
	transfers := debts.ReduceBalance(debtors, creditors)
	return &Settlement{
		Entries:    entries,
		Debtors:    debtors,
		Creditors:  creditors,
		Transfers:  transfers,
		PayeeNames: payeeNames,
	}, nil
}

// resolvePayee 确定供应商货款的收款方。一个团体里有多个对接人时，
// 第一个对接人（按姓名）独占团体收款桶；同团体但姓名不同的后来者
// 单独按姓名成桶。对接人不属于任何团体时同样按姓名成桶。
// claims 记录各团体已被哪个姓名占用，跨供应商遍历累积。
func (s *SettlementService) resolvePayee(claims map[string]string, groups *models.Groups, producer models.Producer) (payee string, name string) {
	name = producer.ReferentName
	if name == "" {
		name = producer.Referent
	}
	if group, ok := groups.UserGroup(producer.Referent); ok {
		claimant, taken := claims[group.ID]
		if !taken || claimant == name {
			claims[group.ID] = name
			return group.ID, name
		}
	}
	return name, name
}
