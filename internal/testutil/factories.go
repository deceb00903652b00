package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// InstanceBuilder provides a fluent interface for creating test instances.
//
// Example usage:
//
//	instance := testutil.NewInstance().WithDescription("Room 12").Build(t, db)
type InstanceBuilder struct {
	ID          string
	Description string
	Deleted     bool
}

// NewInstance creates an InstanceBuilder with sensible defaults.
func NewInstance() *InstanceBuilder {
	return &InstanceBuilder{
		ID:          MakeID(),
		Description: MakeName("Instance"),
	}
}

// WithDescription sets a custom description.
func (b *InstanceBuilder) WithDescription(desc string) *InstanceBuilder {
	b.Description = desc
	return b
}

// SoftDeleted marks the instance as deleted.
func (b *InstanceBuilder) SoftDeleted() *InstanceBuilder {
	b.Deleted = true
	return b
}

// Build creates the instance in the database and returns it.
func (b *InstanceBuilder) Build(t *testing.T, db *sql.DB) model.Instance {
	t.Helper()

	deletedAt := deletedAtValue(b.Deleted)
	_, err := db.Exec(`INSERT INTO instance (id, description, deleted_at) VALUES (?, ?, ?)`,
		b.ID, b.Description, deletedAt)
	if err != nil {
		t.Fatalf("Failed to create test instance: %v", err)
	}

	return model.Instance{ID: b.ID, Description: b.Description}
}

// StudentBuilder creates a student inside a group of an instance. Missing
// instance or group rows are created on Build.
//
// Example usage:
//
//	student := testutil.NewStudent().WithInstance(instance.ID).Build(t, db)
type StudentBuilder struct {
	ID         string
	InstanceID string
	GroupID    string
	FirstName  string
	LastName   string
	Deleted    bool
}

// NewStudent creates a StudentBuilder with sensible defaults.
func NewStudent() *StudentBuilder {
	return &StudentBuilder{
		ID:        MakeID(),
		FirstName: "Test",
		LastName:  MakeName("Student"),
	}
}

// WithInstance places the student in a new group of an existing instance.
func (b *StudentBuilder) WithInstance(instanceID string) *StudentBuilder {
	b.InstanceID = instanceID
	return b
}

// WithGroup places the student in an existing group.
func (b *StudentBuilder) WithGroup(groupID string) *StudentBuilder {
	b.GroupID = groupID
	return b
}

// SoftDeleted marks the student as deleted.
func (b *StudentBuilder) SoftDeleted() *StudentBuilder {
	b.Deleted = true
	return b
}

// Build creates the student (and any missing parents) and returns it with its context.
func (b *StudentBuilder) Build(t *testing.T, db *sql.DB) (model.Student, model.ShareContext) {
	t.Helper()

	if b.GroupID == "" {
		if b.InstanceID == "" {
			b.InstanceID = NewInstance().Build(t, db).ID
		}
		b.GroupID = MakeID()
		_, err := db.Exec(`INSERT INTO student_group (id, instance_id, name) VALUES (?, ?, ?)`,
			b.GroupID, b.InstanceID, MakeName("Group"))
		if err != nil {
			t.Fatalf("Failed to create test group: %v", err)
		}
	} else if b.InstanceID == "" {
		if err := db.QueryRow(`SELECT instance_id FROM student_group WHERE id = ?`, b.GroupID).Scan(&b.InstanceID); err != nil {
			t.Fatalf("Failed to load test group: %v", err)
		}
	}

	student := model.Student{
		ID:            b.ID,
		GroupID:       b.GroupID,
		FirstName:     b.FirstName,
		LastName:      b.LastName,
		AccountNumber: randomAlphanumeric(10),
	}
	_, err := db.Exec(`
		INSERT INTO student (id, group_id, first_name, last_name, account_number, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, student.ID, student.GroupID, student.FirstName, student.LastName, student.AccountNumber, deletedAtValue(b.Deleted))
	if err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}

	return student, model.ShareContext{StudentID: student.ID, GroupID: b.GroupID, InstanceID: b.InstanceID}
}

// ShareTypeBuilder provides a fluent interface for creating test share types.
//
// Example usage:
//
//	shareType := testutil.NewShareType().
//	    WithWithdrawalLimit(2, model.PeriodWeekly).
//	    WithFee(money.FromCents(100)).
//	    Build(t, db)
type ShareTypeBuilder struct {
	ID                       string
	Name                     string
	DividendRate             money.Rate
	WithdrawalLimitCount     int
	WithdrawalLimitPeriod    model.WithdrawalLimitPeriod
	WithdrawalLimitShouldFee bool
	WithdrawalLimitFee       money.Money
	WithdrawalLimitLastReset time.Time
	InstanceIDs              []string
}

// NewShareType creates a ShareTypeBuilder without limits or dividends.
func NewShareType() *ShareTypeBuilder {
	return &ShareTypeBuilder{
		ID:                       MakeID(),
		Name:                     MakeName("Savings"),
		WithdrawalLimitPeriod:    model.PeriodMonthly,
		WithdrawalLimitLastReset: time.Now().UTC().Add(-time.Hour),
	}
}

// WithDividendRate sets the dividend rate.
func (b *ShareTypeBuilder) WithDividendRate(rate money.Rate) *ShareTypeBuilder {
	b.DividendRate = rate
	return b
}

// WithWithdrawalLimit limits the number of withdrawals per period.
func (b *ShareTypeBuilder) WithWithdrawalLimit(count int, period model.WithdrawalLimitPeriod) *ShareTypeBuilder {
	b.WithdrawalLimitCount = count
	b.WithdrawalLimitPeriod = period
	return b
}

// WithFee charges fee for withdrawals over the limit instead of denying them.
func (b *ShareTypeBuilder) WithFee(fee money.Money) *ShareTypeBuilder {
	b.WithdrawalLimitShouldFee = true
	b.WithdrawalLimitFee = fee
	return b
}

// WithLastReset sets when the current withdrawal window started.
func (b *ShareTypeBuilder) WithLastReset(at time.Time) *ShareTypeBuilder {
	b.WithdrawalLimitLastReset = at
	return b
}

// WithInstance links the share type to an instance.
func (b *ShareTypeBuilder) WithInstance(instanceID string) *ShareTypeBuilder {
	b.InstanceIDs = append(b.InstanceIDs, instanceID)
	return b
}

// Build creates the share type in the database and returns it.
func (b *ShareTypeBuilder) Build(t *testing.T, db *sql.DB) model.ShareType {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO share_type (id, name, dividend_rate, withdrawal_limit_count, withdrawal_limit_period,
			withdrawal_limit_should_fee, withdrawal_limit_fee, withdrawal_limit_last_reset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.DividendRate, b.WithdrawalLimitCount, string(b.WithdrawalLimitPeriod),
		b.WithdrawalLimitShouldFee, b.WithdrawalLimitFee, repository.FormatTime(b.WithdrawalLimitLastReset))
	if err != nil {
		t.Fatalf("Failed to create test share type: %v", err)
	}

	for _, instanceID := range b.InstanceIDs {
		if _, err := db.Exec(`INSERT INTO share_type_instance (share_type_id, instance_id) VALUES (?, ?)`, b.ID, instanceID); err != nil {
			t.Fatalf("Failed to link test share type: %v", err)
		}
	}

	return model.ShareType{
		ID:                       b.ID,
		Name:                     b.Name,
		DividendRate:             b.DividendRate,
		WithdrawalLimitCount:     b.WithdrawalLimitCount,
		WithdrawalLimitPeriod:    b.WithdrawalLimitPeriod,
		WithdrawalLimitShouldFee: b.WithdrawalLimitShouldFee,
		WithdrawalLimitFee:       b.WithdrawalLimitFee,
		WithdrawalLimitLastReset: b.WithdrawalLimitLastReset.UTC(),
	}
}

// ShareBuilder provides a fluent interface for creating test shares. Without
// an explicit student or share type, fresh ones are created on Build. A
// non-zero balance is recorded as an opening deposit so the ledger and the
// cached balance agree.
//
// Example usage:
//
//	account := testutil.NewShare().WithBalance(money.FromCents(10000)).Build(t, db)
type ShareBuilder struct {
	ID                     string
	StudentID              string
	InstanceID             string
	ShareTypeID            string
	Balance                money.Money
	LimitedWithdrawalCount int
}

// NewShare creates a ShareBuilder with a zero balance.
func NewShare() *ShareBuilder {
	return &ShareBuilder{ID: MakeID()}
}

// WithStudent uses an existing student.
func (b *ShareBuilder) WithStudent(studentID string) *ShareBuilder {
	b.StudentID = studentID
	return b
}

// WithInstance creates the owning student in the given instance.
func (b *ShareBuilder) WithInstance(instanceID string) *ShareBuilder {
	b.InstanceID = instanceID
	return b
}

// WithShareType uses an existing share type.
func (b *ShareBuilder) WithShareType(shareTypeID string) *ShareBuilder {
	b.ShareTypeID = shareTypeID
	return b
}

// WithBalance sets the opening balance.
func (b *ShareBuilder) WithBalance(balance money.Money) *ShareBuilder {
	b.Balance = balance
	return b
}

// WithWithdrawalCount sets the withdrawals already made in the current window.
func (b *ShareBuilder) WithWithdrawalCount(count int) *ShareBuilder {
	b.LimitedWithdrawalCount = count
	return b
}

// Build creates the share (and any missing parents) and returns it with its context.
func (b *ShareBuilder) Build(t *testing.T, db *sql.DB) model.ShareWithContext {
	t.Helper()

	var sc model.ShareContext
	if b.StudentID == "" {
		_, sc = NewStudent().WithInstance(b.InstanceID).Build(t, db)
		b.StudentID = sc.StudentID
	} else {
		err := db.QueryRow(`
			SELECT st.id, g.id, g.instance_id FROM student st JOIN student_group g ON g.id = st.group_id WHERE st.id = ?
		`, b.StudentID).Scan(&sc.StudentID, &sc.GroupID, &sc.InstanceID)
		if err != nil {
			t.Fatalf("Failed to load test student: %v", err)
		}
	}

	var shareType model.ShareType
	if b.ShareTypeID == "" {
		shareType = NewShareType().WithInstance(sc.InstanceID).Build(t, db)
		b.ShareTypeID = shareType.ID
	} else {
		shareType = model.ShareType{ID: b.ShareTypeID}
	}

	createdAt := time.Now().UTC().Add(-time.Hour)
	share := model.Share{
		ID:                     b.ID,
		StudentID:              b.StudentID,
		ShareTypeID:            b.ShareTypeID,
		Balance:                b.Balance,
		LimitedWithdrawalCount: b.LimitedWithdrawalCount,
		CreatedAt:              createdAt,
	}
	_, err := db.Exec(`
		INSERT INTO share (id, student_id, share_type_id, balance, limited_withdrawal_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, share.ID, share.StudentID, share.ShareTypeID, share.Balance, share.LimitedWithdrawalCount, repository.FormatTime(createdAt))
	if err != nil {
		t.Fatalf("Failed to create test share: %v", err)
	}

	if !b.Balance.IsZero() {
		at := repository.FormatTime(createdAt)
		_, err := db.Exec(`
			INSERT INTO ledger_transaction (id, target_share_id, transaction_type, amount, new_balance, comment, effective_date, posted_at, is_failed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, MakeID(), share.ID, string(model.TypeDeposit), b.Balance, b.Balance, "Opening balance", at, at, false)
		if err != nil {
			t.Fatalf("Failed to create opening transaction: %v", err)
		}
	}

	return model.ShareWithContext{Share: share, ShareType: shareType, Context: sc}
}

// ProductBuilder provides a fluent interface for creating test products.
//
// Example usage:
//
//	product := testutil.NewProduct().WithCost(money.FromCents(500)).Limited(1).WithInstance(id).Build(t, db)
type ProductBuilder struct {
	ID                string
	Name              string
	Cost              money.Money
	IsLimitedQuantity bool
	QuantityAvailable int64
	InstanceIDs       []string
}

// NewProduct creates an unlimited ProductBuilder costing $1.00.
func NewProduct() *ProductBuilder {
	return &ProductBuilder{
		ID:   MakeID(),
		Name: MakeName("Pencil"),
		Cost: money.FromCents(100),
	}
}

// WithCost sets the unit cost.
func (b *ProductBuilder) WithCost(cost money.Money) *ProductBuilder {
	b.Cost = cost
	return b
}

// Limited tracks inventory starting at quantity.
func (b *ProductBuilder) Limited(quantity int64) *ProductBuilder {
	b.IsLimitedQuantity = true
	b.QuantityAvailable = quantity
	return b
}

// WithInstance offers the product to an instance.
func (b *ProductBuilder) WithInstance(instanceID string) *ProductBuilder {
	b.InstanceIDs = append(b.InstanceIDs, instanceID)
	return b
}

// Build creates the product in the database and returns it.
func (b *ProductBuilder) Build(t *testing.T, db *sql.DB) model.Product {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO product (id, name, cost, is_limited_quantity, quantity_available) VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.Cost, b.IsLimitedQuantity, b.QuantityAvailable)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	for _, instanceID := range b.InstanceIDs {
		if _, err := db.Exec(`INSERT INTO product_instance (product_id, instance_id) VALUES (?, ?)`, b.ID, instanceID); err != nil {
			t.Fatalf("Failed to link test product: %v", err)
		}
	}

	return model.Product{
		ID:                b.ID,
		Name:              b.Name,
		Cost:              b.Cost,
		IsLimitedQuantity: b.IsLimitedQuantity,
		QuantityAvailable: b.QuantityAvailable,
	}
}

// StockBuilder provides a fluent interface for creating test stocks.
//
// Example usage:
//
//	stock := testutil.NewStock().WithValue(money.FromCents(1000)).WithInstance(id).Build(t, db)
type StockBuilder struct {
	ID              string
	Symbol          string
	Name            string
	CurrentValue    money.Money
	AvailableShares int64
	InstanceIDs     []string
}

// NewStock creates a StockBuilder worth $10.00 with 100 shares on offer.
func NewStock() *StockBuilder {
	return &StockBuilder{
		ID:              MakeID(),
		Symbol:          MakeSymbol("TST"),
		Name:            MakeName("Stock"),
		CurrentValue:    money.FromCents(1000),
		AvailableShares: 100,
	}
}

// WithValue sets the current unit value.
func (b *StockBuilder) WithValue(value money.Money) *StockBuilder {
	b.CurrentValue = value
	return b
}

// WithAvailableShares sets the shares still on offer.
func (b *StockBuilder) WithAvailableShares(n int64) *StockBuilder {
	b.AvailableShares = n
	return b
}

// WithInstance offers the stock to an instance.
func (b *StockBuilder) WithInstance(instanceID string) *StockBuilder {
	b.InstanceIDs = append(b.InstanceIDs, instanceID)
	return b
}

// Build creates the stock in the database and returns it.
func (b *StockBuilder) Build(t *testing.T, db *sql.DB) model.Stock {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO stock (id, symbol, name, current_value, available_shares) VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Symbol, b.Name, b.CurrentValue, b.AvailableShares)
	if err != nil {
		t.Fatalf("Failed to create test stock: %v", err)
	}
	for _, instanceID := range b.InstanceIDs {
		if _, err := db.Exec(`INSERT INTO stock_instance (stock_id, instance_id) VALUES (?, ?)`, b.ID, instanceID); err != nil {
			t.Fatalf("Failed to link test stock: %v", err)
		}
	}

	return model.Stock{
		ID:              b.ID,
		Symbol:          b.Symbol,
		Name:            b.Name,
		CurrentValue:    b.CurrentValue,
		AvailableShares: b.AvailableShares,
	}
}

// CreateHolding seeds a student's holding of a stock without a trade history.
//
// Example usage:
//
//	holding := testutil.CreateHolding(t, db, account, stock.ID, 5)
func CreateHolding(t *testing.T, db *sql.DB, account model.ShareWithContext, stockID string, sharesOwned int64) model.StudentStock {
	t.Helper()

	now := time.Now().UTC().Add(-time.Hour)
	holding := model.StudentStock{
		ID:             MakeID(),
		StudentID:      account.Context.StudentID,
		StockID:        stockID,
		ShareID:        account.Share.ID,
		SharesOwned:    sharesOwned,
		DateCreated:    now,
		DateLastActive: now,
	}
	_, err := db.Exec(`
		INSERT INTO student_stock (id, student_id, stock_id, share_id, shares_owned, net_contribution, date_created, date_last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, holding.ID, holding.StudentID, holding.StockID, holding.ShareID, holding.SharesOwned, holding.NetContribution,
		repository.FormatTime(now), repository.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}
	return holding
}

func deletedAtValue(deleted bool) sql.NullString {
	if !deleted {
		return sql.NullString{}
	}
	return sql.NullString{String: repository.FormatTime(time.Now()), Valid: true}
}
