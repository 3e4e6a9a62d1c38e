package dal

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doitintl/hello/offset-checkout/framework/connection"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

const (
	paymentIntentsCollection = "paymentIntents"
	fieldProcessorID         = "processorId"
)

// PaymentIntentsFirestore stores payment intents in Firestore.
type PaymentIntentsFirestore struct {
	firestoreClientFun connection.FirestoreFromContextFun
	now                func() time.Time
}

// NewPaymentIntentsFirestore returns a new PaymentIntentsFirestore instance with given project id.
func NewPaymentIntentsFirestore(ctx context.Context, projectID string) (*PaymentIntentsFirestore, error) {
	fs, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return NewPaymentIntentsFirestoreWithClient(
		func(ctx context.Context) *firestore.Client {
			return fs
		}), nil
}

// NewPaymentIntentsFirestoreWithClient returns a new PaymentIntentsFirestore using given client.
func NewPaymentIntentsFirestoreWithClient(fun connection.FirestoreFromContextFun) *PaymentIntentsFirestore {
	return &PaymentIntentsFirestore{
		firestoreClientFun: fun,
		now:                time.Now,
	}
}

func (d *PaymentIntentsFirestore) collection(ctx context.Context) *firestore.CollectionRef {
	return d.firestoreClientFun(ctx).Collection(paymentIntentsCollection)
}

func (d *PaymentIntentsFirestore) Create(ctx context.Context, pi *domain.PaymentIntent) error {
	now := d.now().UTC()
	pi.CreatedAt = now
	pi.UpdatedAt = now

	if _, err := d.collection(ctx).Doc(pi.ID).Create(ctx, pi); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}

		return err
	}

	return nil
}

func (d *PaymentIntentsFirestore) Get(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	docSnap, err := d.collection(ctx).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var pi domain.PaymentIntent
	if err := docSnap.DataTo(&pi); err != nil {
		return nil, err
	}

	return &pi, nil
}

func (d *PaymentIntentsFirestore) GetByProcessorID(ctx context.Context, processorID string) (*domain.PaymentIntent, error) {
	iter := d.collection(ctx).
		Where(fieldProcessorID, "==", processorID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	var pi domain.PaymentIntent
	if err := docSnap.DataTo(&pi); err != nil {
		return nil, err
	}

	return &pi, nil
}

func (d *PaymentIntentsFirestore) ApplyStatus(ctx context.Context, id string, s domain.Status, amountReceived int64) (*StatusChange, error) {
	docRef := d.collection(ctx).Doc(id)

	var change *StatusChange

	err := d.firestoreClientFun(ctx).RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}

			return err
		}

		var pi domain.PaymentIntent
		if err := docSnap.DataTo(&pi); err != nil {
			return err
		}

		change, err = applyStatus(&pi, s, amountReceived, d.now().UTC())
		if err != nil || !change.Changed {
			return err
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: pi.Status},
			{Path: "amountReceived", Value: pi.AmountReceived},
			{Path: "updatedAt", Value: pi.UpdatedAt},
		})
	}, firestore.MaxAttempts(10))

	return change, err
}
