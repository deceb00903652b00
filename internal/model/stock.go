package model

import (
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// Stock is a simulated tradeable equity (not to be confused with a Share account).
type Stock struct {
	ID              string      `json:"id"`
	Symbol          string      `json:"stockSymbol"`
	Name            string      `json:"name"`
	CurrentValue    money.Money `json:"currentValue"`
	AvailableShares int64       `json:"availableShares"`
	DeletedAt       *time.Time  `json:"deletedAt,omitempty"`
}

// StudentStock is a student's holding of a stock. NetContribution is the
// cumulative cash invested: buys add to it, sales subtract from it.
type StudentStock struct {
	ID              string      `json:"id"`
	StudentID       string      `json:"studentId"`
	StockID         string      `json:"stockId"`
	ShareID         string      `json:"shareId"`
	SharesOwned     int64       `json:"sharesOwned"`
	NetContribution money.Money `json:"netContribution"`
	DateCreated     time.Time   `json:"dateCreated"`
	DateLastActive  time.Time   `json:"dateLastActive"`
}

// StudentStockHistory is an append-only record of one buy or sell, tied to
// the ledger transaction that moved the cash.
type StudentStockHistory struct {
	ID             string      `json:"id"`
	StudentStockID string      `json:"studentStockId"`
	TransactionID  string      `json:"transactionId"`
	Quantity       int64       `json:"quantity"`
	UnitValue      money.Money `json:"unitValue"`
	DateCreated    time.Time   `json:"dateCreated"`
}
