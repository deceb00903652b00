package model

import (
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// PostRequest describes a single posting against a share.
//
// Type is resolved from the amount when empty and EffectiveDate defaults to
// the posting time. The withdrawal-limit policy runs unless SkipWithdrawalLimit is set.
type PostRequest struct {
	ShareID             string
	Amount              money.Money
	Comment             string
	EffectiveDate       *time.Time
	Type                TransactionType
	AllowNegative       bool
	SkipWithdrawalLimit bool
}

// TransferRequest moves Amount from SourceShareID to DestinationShareID.
type TransferRequest struct {
	SourceShareID       string
	DestinationShareID  string
	Amount              money.Money
	Comment             string
	AllowNegative       bool
	SkipWithdrawalLimit bool
}

// TransferResult holds the two linked transfer transactions.
type TransferResult struct {
	Source      Transaction `json:"source"`
	Destination Transaction `json:"destination"`
}

// PurchaseItemRequest asks for Count units of a product.
type PurchaseItemRequest struct {
	ProductID string
	Count     int64
}

// PurchaseRequest buys products with the balance of ShareID.
type PurchaseRequest struct {
	ShareID string
	Items   []PurchaseItemRequest
}

// PurchaseResult is the persisted purchase and the debit that paid for it.
type PurchaseResult struct {
	Purchase    *StudentPurchase `json:"purchase"`
	Transaction Transaction      `json:"transaction"`
}

// StockTradeRequest buys (positive Quantity) or sells (negative Quantity) a stock.
type StockTradeRequest struct {
	ShareID  string
	StockID  string
	Quantity int64
}

// StockTradeResult is the updated holding, the cash transaction and its history row.
type StockTradeResult struct {
	Holding     StudentStock        `json:"holding"`
	Transaction Transaction         `json:"transaction"`
	History     StudentStockHistory `json:"history"`
}

// DividendRequest pays the dividend of ShareTypeID to shares in InstanceIDs.
// RunID identifies the run; passing the id of an interrupted run resumes it.
type DividendRequest struct {
	ShareTypeID string
	InstanceIDs []string
	RunID       string
}

// DividendRunResult summarizes what a dividend run posted.
type DividendRunResult struct {
	RunID          string      `json:"runId"`
	SharesPaid     int         `json:"sharesPaid"`
	TotalPaid      money.Money `json:"totalPaid"`
	PagesCommitted int         `json:"pagesCommitted"`
}
