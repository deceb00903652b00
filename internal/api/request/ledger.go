// Package request holds the JSON bodies accepted by the API.
package request

import "github.com/ndewijer/Classroom-Bank-Backend/internal/money"

// PostTransactionRequest represents the request body for posting to a share.
// Amount is signed; type is resolved from it when empty.
type PostTransactionRequest struct {
	Amount              money.Money `json:"amount"`
	Comment             string      `json:"comment,omitempty"`
	EffectiveDate       string      `json:"effectiveDate,omitempty"`
	Type                string      `json:"transactionType,omitempty"`
	AllowNegative       bool        `json:"allowNegative,omitempty"`
	SkipWithdrawalLimit bool        `json:"skipWithdrawalLimit,omitempty"`
}

// BatchItem is one posting of a batch.
type BatchItem struct {
	ShareID string `json:"shareId"`
	PostTransactionRequest
}

// PostBatchRequest represents the request body for posting a batch in one unit
// of work. Both flags default to true when omitted.
type PostBatchRequest struct {
	Items                  []BatchItem `json:"items"`
	StopOnException        *bool       `json:"stopOnException,omitempty"`
	EnforceWithdrawalLimit *bool       `json:"enforceWithdrawalLimit,omitempty"`
}

// TransferRequest represents the request body for moving money between shares.
type TransferRequest struct {
	SourceShareID      string      `json:"sourceShareId"`
	DestinationShareID string      `json:"destinationShareId"`
	Amount             money.Money `json:"amount"`
	Comment            string      `json:"comment,omitempty"`
	AllowNegative      bool        `json:"allowNegative,omitempty"`
}

// PurchaseItem asks for Count units of a product.
type PurchaseItem struct {
	ProductID string `json:"productId"`
	Count     int64  `json:"count"`
}

// PurchaseRequest represents the request body for buying products with a share.
type PurchaseRequest struct {
	Items []PurchaseItem `json:"items"`
}

// StockTradeRequest represents the request body for a stock trade. A negative
// quantity sells.
type StockTradeRequest struct {
	StockID  string `json:"stockId"`
	Quantity int64  `json:"quantity"`
}

// DividendRequest represents the request body for a dividend run. Passing the
// runId of an interrupted run resumes it.
type DividendRequest struct {
	InstanceIDs []string `json:"instanceIds"`
	RunID       string   `json:"runId,omitempty"`
}
