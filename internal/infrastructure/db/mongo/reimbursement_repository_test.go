package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestReimbursementRepository_AddNew(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("references the author", func(mt *mtest.T) {
		repo := NewReimbursementRepository(mt.DB, zerolog.Nop())
		mt.AddMockResponses(
			matched(1),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "reimbursements"}, {Key: "seq", Value: 4}}}),
			mtest.CreateSuccessResponse(),
		)

		rb, err := repo.AddNew(context.Background(), &domain.Reimbursement{
			Amount: 12, Submitted: fixedTime, Description: "taxi", Author: 2, Status: domain.StatusPending, Type: domain.TypeTravel,
		})
		if err != nil {
			mt.Fatalf("AddNew returned error: %v", err)
		}
		if rb.ID != 4 || rb.Author != 2 {
			mt.Fatalf("unexpected reimbursement: %+v", rb)
		}
	})

	mt.Run("unknown author", func(mt *mtest.T) {
		repo := NewReimbursementRepository(mt.DB, zerolog.Nop())
		mt.AddMockResponses(matched(0))

		_, err := repo.AddNew(context.Background(), &domain.Reimbursement{Amount: 12, Description: "taxi", Author: 99, Type: domain.TypeTravel})
		if !errors.Is(err, domain.ErrBadRequest) {
			mt.Fatalf("expected ErrBadRequest, got %v", err)
		}
	})
}

func TestReimbursementRepository_ConditionalWrites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update matched", func(mt *mtest.T) {
		repo := NewReimbursementRepository(mt.DB, zerolog.Nop())
		mt.AddMockResponses(
			matched(1),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: 1}, {Key: "author", Value: 2}, {Key: "status", Value: int(domain.StatusPending)},
			}}),
			matched(1),
		)

		ok, err := repo.Update(context.Background(), &domain.Reimbursement{ID: 1, Amount: 5, Description: "x", Author: 2, Type: domain.TypeFood})
		if err != nil || !ok {
			mt.Fatalf("Update: ok=%v err=%v", ok, err)
		}
	})

	mt.Run("update on non-pending matches nothing", func(mt *mtest.T) {
		repo := NewReimbursementRepository(mt.DB, zerolog.Nop())
		mt.AddMockResponses(
			matched(1),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			matched(1),
		)

		ok, err := repo.Update(context.Background(), &domain.Reimbursement{ID: 1, Amount: 5, Description: "x", Author: 2, Type: domain.TypeFood})
		if err != nil || ok {
			mt.Fatalf("Update: ok=%v err=%v", ok, err)
		}
	})

	mt.Run("resolve on non-pending matches nothing", func(mt *mtest.T) {
		repo := NewReimbursementRepository(mt.DB, zerolog.Nop())
		mt.AddMockResponses(matched(1), matched(0), matched(1))

		ok, err := repo.SetStatus(context.Background(), domain.Resolution{ID: 1, Status: domain.StatusApproved, Resolver: 4}, fixedTime)
		if err != nil || ok {
			mt.Fatalf("SetStatus: ok=%v err=%v", ok, err)
		}
	})

	mt.Run("resolve with unknown resolver", func(mt *mtest.T) {
		repo := NewReimbursementRepository(mt.DB, zerolog.Nop())
		mt.AddMockResponses(matched(0))

		_, err := repo.SetStatus(context.Background(), domain.Resolution{ID: 1, Status: domain.StatusDenied, Resolver: 77}, fixedTime)
		if !errors.Is(err, domain.ErrBadRequest) {
			mt.Fatalf("expected ErrBadRequest, got %v", err)
		}
	})
}
