package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/repository"
)

func TestRepositoryErrorPaths(t *testing.T) {
	testCases := map[string]struct {
		setup func(mock sqlmock.Sqlmock)
		run   func(s *Store) error
		want  error
	}{
		"user not found maps to ErrNotFound": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM users WHERE id = ?").WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)
			},
			run: func(s *Store) error {
				_, err := s.Users().FindByID(context.Background(), 7)
				return err
			},
			want: repository.ErrNotFound,
		},
		"unique violation maps to ErrConflict": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO trackings").WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: trackings.carrier"))
			},
			run: func(s *Store) error {
				_, err := s.Trackings().Create(context.Background(), &repository.Tracking{OrderID: 1, Carrier: "UPS", TrackingNumber: "1"})
				return err
			},
			want: repository.ErrConflict,
		},
		"failed transition rolls back": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO order_status_logs").WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			run: func(s *Store) error {
				return s.Orders().Transition(context.Background(), repository.OrderTransition{
					OrderID: 1, From: repository.OrderPending, To: repository.OrderPaid, At: 1,
				})
			},
		},
		"duplicate tracking rolls back shipment": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO order_status_logs").WillReturnResult(sqlmock.NewResult(3, 1))
				mock.ExpectExec("INSERT INTO trackings").WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: trackings.carrier"))
				mock.ExpectRollback()
			},
			run: func(s *Store) error {
				return s.Orders().Transition(context.Background(), repository.OrderTransition{
					OrderID: 1, From: repository.OrderPaid, To: repository.OrderOnRoute, At: 1,
					Tracking: &repository.Tracking{Carrier: "UPS", TrackingNumber: "1"},
				})
			},
			want: repository.ErrDuplicateTracking,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tc.setup(mock)
			err = tc.run(NewStore(db))
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
