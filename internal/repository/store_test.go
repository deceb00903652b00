package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

func TestStoreTestSuite(t *testing.T) {
	t.Helper()
	suite.Run(t, new(storeTestSuite))
}

type storeTestSuite struct {
	suite.Suite
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *Store
	repo  *ShareRepository
}

func (suite *storeTestSuite) SetupTest() {
	var err error
	suite.db, suite.mock, err = sqlmock.New()
	require.NoError(suite.T(), err)

	suite.store = NewStore(suite.db, string(DialectSQLite), zaptest.NewLogger(suite.T()))
	suite.repo = NewShareRepository(suite.store)
}

func (suite *storeTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.db.Close()
}

func (suite *storeTestSuite) expectUpdateBalance(affected int64) {
	suite.mock.ExpectExec(`UPDATE share SET balance = \?`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "share-1").
		WillReturnResult(sqlmock.NewResult(0, affected))
}

func (suite *storeTestSuite) TestAtomic_CommitsOnSuccess() {
	suite.mock.ExpectBegin()
	suite.expectUpdateBalance(1)
	suite.mock.ExpectCommit()

	err := suite.store.Atomic(context.Background(), func(ctx context.Context) error {
		assert.True(suite.T(), InTx(ctx))
		return suite.repo.UpdateBalance(ctx, model.Share{ID: "share-1", Balance: money.FromCents(100)})
	})
	assert.NoError(suite.T(), err)
}

func (suite *storeTestSuite) TestAtomic_RollsBackOnError() {
	boom := errors.New("boom")
	suite.mock.ExpectBegin()
	suite.expectUpdateBalance(1)
	suite.mock.ExpectRollback()

	err := suite.store.Atomic(context.Background(), func(ctx context.Context) error {
		if err := suite.repo.UpdateBalance(ctx, model.Share{ID: "share-1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(suite.T(), err, boom)
}

func (suite *storeTestSuite) TestAtomic_NestedCallsJoinOuterUnit() {
	suite.mock.ExpectBegin()
	suite.expectUpdateBalance(1)
	suite.expectUpdateBalance(1)
	suite.mock.ExpectCommit()

	err := suite.store.Atomic(context.Background(), func(ctx context.Context) error {
		if err := suite.repo.UpdateBalance(ctx, model.Share{ID: "share-1"}); err != nil {
			return err
		}
		return suite.store.Atomic(ctx, func(ctx context.Context) error {
			return suite.repo.UpdateBalance(ctx, model.Share{ID: "share-1"})
		})
	})
	assert.NoError(suite.T(), err)
}

func (suite *storeTestSuite) TestAtomic_RollsBackOnPanic() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectRollback()

	assert.PanicsWithValue(suite.T(), "kaboom", func() {
		_ = suite.store.Atomic(context.Background(), func(ctx context.Context) error {
			panic("kaboom")
		})
	})
}

func (suite *storeTestSuite) TestAtomic_ReportsCommitFailure() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err := suite.store.Atomic(context.Background(), func(ctx context.Context) error { return nil })
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "failed to commit transaction")
}

func (suite *storeTestSuite) TestAtomic_CancelledContextNeverBegins() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := suite.store.Atomic(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(suite.T(), err, context.Canceled)
	assert.False(suite.T(), called)
}

func (suite *storeTestSuite) TestUpdateBalance_MissingShare() {
	suite.expectUpdateBalance(0)

	err := suite.repo.UpdateBalance(context.Background(), model.Share{ID: "share-1"})
	assert.ErrorIs(suite.T(), err, apperrors.ErrShareNotFound)
}

func (suite *storeTestSuite) TestGetShare_SQLiteNeverLocksRows() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`AND s\.id = \?$`).
		WithArgs("share-1").
		WillReturnRows(shareRows().AddRow(shareRow()...))
	suite.mock.ExpectCommit()

	err := suite.store.Atomic(context.Background(), func(ctx context.Context) error {
		share, err := suite.repo.GetShare(ctx, "share-1")
		if err != nil {
			return err
		}
		assert.Equal(suite.T(), money.FromCents(1250), share.Balance)
		assert.Nil(suite.T(), share.DateLastActive)
		return nil
	})
	assert.NoError(suite.T(), err)
}

func (suite *storeTestSuite) TestGetShare_NotFound() {
	suite.mock.ExpectQuery(`FROM share s`).
		WithArgs("share-1").
		WillReturnRows(shareRows())

	_, err := suite.repo.GetShare(context.Background(), "share-1")
	assert.ErrorIs(suite.T(), err, apperrors.ErrShareNotFound)
}

func TestStore_PostgresDialect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db, string(DialectPostgres), zaptest.NewLogger(t))
	repo := NewShareRepository(store)

	t.Run("locks rows inside a unit of work", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`s\.id = \$1 FOR UPDATE OF s$`).
			WithArgs("share-1").
			WillReturnRows(shareRows().AddRow(shareRow()...))
		mock.ExpectCommit()

		err := store.Atomic(context.Background(), func(ctx context.Context) error {
			_, err := repo.GetShare(ctx, "share-1")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("plain reads outside a unit of work", func(t *testing.T) {
		mock.ExpectQuery(`s\.id = \$1$`).
			WithArgs("share-1").
			WillReturnRows(shareRows().AddRow(shareRow()...))

		_, err := repo.GetShare(context.Background(), "share-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func shareRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "share_type_id", "balance", "dividend_last_amount", "total_dividends",
		"limited_withdrawal_count", "date_last_active", "created_at", "deleted_at",
	})
}

func shareRow() []driver.Value {
	return []driver.Value{
		"share-1", "student-1", "type-1", int64(1250), int64(0), int64(0),
		int64(0), nil, "2024-09-01T08:00:00.000000000Z", nil,
	}
}
