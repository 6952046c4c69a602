package internal_evidence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	logger, err := commons.NewApplicationLogger(commons.Name("test-evidence"), commons.Level("debug"))
	require.NoError(t, err)

	return NewStore(connectors.NewPostgresConnectorFromDB(gdb, logger), logger), mock
}

func TestSaveSerializesPayload(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "evidence"`).
		WithArgs("threeflows", "on_response_submitted", 1, sqlmock.AnyArg(), `{"text":"a"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	row, err := store.Save(context.Background(), "threeflows", "on_response_submitted", 1,
		map[string]interface{}{"text": "a"})
	require.NoError(t, err)

	assert.Equal(t, uint64(42), row.Id)
	assert.Equal(t, "threeflows", row.App)
	assert.JSONEq(t, `{"text":"a"}`, row.JSON)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRejectsUnserializablePayload(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.Save(context.Background(), "threeflows", "bad", 1, make(chan int))
	assert.Error(t, err)
}

func TestListByTypesFiltersAndOrders(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "app", "type", "version", "json"}).
		AddRow(2, "threeflows", "on_response_submitted", 1, `{"text":"b"}`).
		AddRow(1, "threeflows", "on_response_submitted", 1, `{"text":"a"}`)
	mock.ExpectQuery(`SELECT \* FROM "evidence" WHERE app = .+ AND type IN .+ ORDER BY timestamp DESC`).
		WillReturnRows(rows)

	got, err := store.ListByTypes(context.Background(), "threeflows", []string{"on_response_submitted"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	payload, err := got[0].Payload()
	require.NoError(t, err)
	assert.Equal(t, "b", payload["text"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
