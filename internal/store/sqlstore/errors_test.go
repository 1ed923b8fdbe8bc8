package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/padelhub/score-service/internal/domain"
)

type StoreErrorsSuite struct {
	suite.Suite
	db   *sqlx.DB
	mock sqlmock.Sqlmock
	st   *Store
}

func (s *StoreErrorsSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	require.NoError(s.T(), err)

	s.db = sqlx.NewDb(mockDB, "sqlmock")
	s.mock = mock
	s.st = &Store{db: s.db}
}

func (s *StoreErrorsSuite) TearDownTest() {
	s.db.Close()
}

func (s *StoreErrorsSuite) TestGetMatchQueryFailure() {
	dbErr := errors.New("disk I/O error")
	s.mock.ExpectQuery(`SELECT \* FROM matches WHERE id = \?`).
		WithArgs("m1").
		WillReturnError(dbErr)

	_, err := s.st.GetMatch(context.Background(), "m1")

	assert.ErrorIs(s.T(), err, dbErr)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *StoreErrorsSuite) TestNextSeqQueryFailure() {
	dbErr := errors.New("database is locked")
	s.mock.ExpectQuery(`SELECT MAX\(seq\) FROM point_events WHERE match_id = \?`).
		WithArgs("m1").
		WillReturnError(dbErr)

	_, err := s.st.NextSeq(context.Background(), "m1")

	assert.ErrorIs(s.T(), err, dbErr)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *StoreErrorsSuite) TestApplyPointRollsBackOnGameUpdateFailure() {
	dbErr := errors.New("constraint failed")
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO point_events`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectExec(`UPDATE games SET`).
		WillReturnError(dbErr)
	s.mock.ExpectRollback()

	ev := domain.PointEvent{ID: "e1", MatchID: "m1", GameID: "g1", TeamID: "t1", IdempotencyKey: "k1", Seq: 1, CreatedAt: time.Now()}
	game := domain.Game{ID: "g1", MatchID: "m1", Number: 1, TeamAPoints: 1, Status: domain.GameActive}
	err := s.st.ApplyPoint(context.Background(), ev, []byte(`{}`), game, nil)

	assert.ErrorIs(s.T(), err, dbErr)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *StoreErrorsSuite) TestApplyPointDuplicateKeyRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO point_events`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	ev := domain.PointEvent{ID: "e1", MatchID: "m1", GameID: "g1", TeamID: "t1", IdempotencyKey: "k1", Seq: 1, CreatedAt: time.Now()}
	game := domain.Game{ID: "g1", MatchID: "m1", Number: 1, Status: domain.GameActive}
	err := s.st.ApplyPoint(context.Background(), ev, []byte(`{}`), game, nil)

	assert.ErrorIs(s.T(), err, ErrDuplicatePoint)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func TestStoreErrorsSuite(t *testing.T) {
	suite.Run(t, new(StoreErrorsSuite))
}
