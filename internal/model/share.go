package model

import (
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// WithdrawalLimitPeriod is the window after which a share's withdrawal count resets.
type WithdrawalLimitPeriod string

const (
	PeriodDaily   WithdrawalLimitPeriod = "Daily"
	PeriodWeekly  WithdrawalLimitPeriod = "Weekly"
	PeriodMonthly WithdrawalLimitPeriod = "Monthly"
	PeriodYearly  WithdrawalLimitPeriod = "Yearly"
)

// Valid reports whether p is one of the known periods.
func (p WithdrawalLimitPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// NextReset returns the moment the window that started at last ends.
func (p WithdrawalLimitPeriod) NextReset(last time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return last.AddDate(0, 0, 1)
	case PeriodWeekly:
		return last.AddDate(0, 0, 7)
	case PeriodYearly:
		return last.AddDate(1, 0, 0)
	default:
		return last.AddDate(0, 1, 0)
	}
}

// ShareType is the configuration template applied to shares: dividend rate
// and withdrawal-limit policy. It is referenced by shares, never owned.
type ShareType struct {
	ID                       string                `json:"id"`
	Name                     string                `json:"name"`
	DividendRate             money.Rate            `json:"dividendRate"`
	WithdrawalLimitCount     int                   `json:"withdrawalLimitCount"`
	WithdrawalLimitPeriod    WithdrawalLimitPeriod `json:"withdrawalLimitPeriod"`
	WithdrawalLimitShouldFee bool                  `json:"withdrawalLimitShouldFee"`
	WithdrawalLimitFee       money.Money           `json:"withdrawalLimitFee"`
	WithdrawalLimitLastReset time.Time             `json:"withdrawalLimitLastReset"`
	DeletedAt                *time.Time            `json:"deletedAt,omitempty"`
}

// Share is a student's deposit account. Balance is a cached projection of the
// ledger: it always equals the NewBalance of the latest posted Transaction and
// is only written by the posting engine.
type Share struct {
	ID                     string      `json:"id"`
	StudentID              string      `json:"studentId"`
	ShareTypeID            string      `json:"shareTypeId"`
	Balance                money.Money `json:"balance"`
	DividendLastAmount     money.Money `json:"dividendLastAmount"`
	TotalDividends         money.Money `json:"totalDividends"`
	LimitedWithdrawalCount int         `json:"limitedWithdrawalCount"`
	DateLastActive         *time.Time  `json:"dateLastActive,omitempty"`
	CreatedAt              time.Time   `json:"createdAt"`
	DeletedAt              *time.Time  `json:"deletedAt,omitempty"`
}

// ShareContext is the organizational scope of a share, resolved through its
// owning student and group.
type ShareContext struct {
	StudentID  string `json:"studentId"`
	GroupID    string `json:"groupId"`
	InstanceID string `json:"instanceId"`
}

// ShareWithContext bundles a share with its share type and tenant scope, as
// loaded by the compound operations.
type ShareWithContext struct {
	Share     Share        `json:"share"`
	ShareType ShareType    `json:"shareType"`
	Context   ShareContext `json:"context"`
}
