package dal

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/framework/connection"
)

const (
	purchasesCollection            = "purchases"
	donationsCollection            = "donations"
	certificatesCollection         = "certificates"
	certificateSequencesCollection = "certificateSequences"

	fieldSequenceValue     = "value"
	fieldCertificateNumber = "certificateNumber"
	fieldPurchaseID        = "purchaseId"
	fieldDonationID        = "donationId"
	fieldArtifactURL       = "artifactUrl"
	fieldStatus            = "status"
)

// StoreFirestore stores purchases, donations and certificates in Firestore.
type StoreFirestore struct {
	firestoreClientFun connection.FirestoreFromContextFun
}

// NewStoreFirestore returns a new StoreFirestore instance with given project id.
func NewStoreFirestore(ctx context.Context, projectID string) (*StoreFirestore, error) {
	fs, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return NewStoreFirestoreWithClient(
		func(ctx context.Context) *firestore.Client {
			return fs
		}), nil
}

// NewStoreFirestoreWithClient returns a new StoreFirestore using given client.
func NewStoreFirestoreWithClient(fun connection.FirestoreFromContextFun) *StoreFirestore {
	return &StoreFirestore{
		firestoreClientFun: fun,
	}
}

func (d *StoreFirestore) collection(ctx context.Context, name string) *firestore.CollectionRef {
	return d.firestoreClientFun(ctx).Collection(name)
}

// createIfAbsent creates the document and reports false if it already existed.
func createIfAbsent(ctx context.Context, docRef *firestore.DocumentRef, data interface{}) (bool, error) {
	if _, err := docRef.Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func getDoc(ctx context.Context, docRef *firestore.DocumentRef, v interface{}) error {
	docSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}

		return err
	}

	return docSnap.DataTo(v)
}

func (d *StoreFirestore) CreatePurchase(ctx context.Context, p *domain.Purchase) (bool, error) {
	return createIfAbsent(ctx, d.collection(ctx, purchasesCollection).Doc(p.ID), p)
}

func (d *StoreFirestore) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	var p domain.Purchase
	if err := getDoc(ctx, d.collection(ctx, purchasesCollection).Doc(id), &p); err != nil {
		return nil, err
	}

	return &p, nil
}

func (d *StoreFirestore) CreateDonation(ctx context.Context, donation *domain.Donation) (bool, error) {
	return createIfAbsent(ctx, d.collection(ctx, donationsCollection).Doc(donation.ID), donation)
}

func (d *StoreFirestore) GetDonation(ctx context.Context, id string) (*domain.Donation, error) {
	var donation domain.Donation
	if err := getDoc(ctx, d.collection(ctx, donationsCollection).Doc(id), &donation); err != nil {
		return nil, err
	}

	return &donation, nil
}

// NextSequence increments the counter in a transaction; Firestore retries the
// transaction on contention so two callers never read the same value.
func (d *StoreFirestore) NextSequence(ctx context.Context, scope string) (int64, error) {
	docRef := d.collection(ctx, certificateSequencesCollection).Doc(scope)

	var next int64

	err := d.firestoreClientFun(ctx).RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next = 1

		docSnap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if docSnap != nil && docSnap.Exists() {
			v, err := docSnap.DataAt(fieldSequenceValue)
			if err != nil {
				return err
			}

			current, err := sequenceValue(docRef.Path, v)
			if err != nil {
				return err
			}

			next = current + 1
		}

		return tx.Set(docRef, map[string]interface{}{
			fieldSequenceValue: next,
		})
	}, firestore.MaxAttempts(10))
	if err != nil {
		return 0, err
	}

	return next, nil
}

// sequenceValue reads a stored counter; only int64 values are accepted.
func sequenceValue(path string, v interface{}) (int64, error) {
	current, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %s holds %T", ErrCorruptSequence, path, v)
	}

	return current, nil
}

func (d *StoreFirestore) CreateCertificate(ctx context.Context, c *domain.Certificate) (*domain.Certificate, bool, error) {
	docRef := d.collection(ctx, certificatesCollection).Doc(c.ID)

	created, err := createIfAbsent(ctx, docRef, c)
	if err != nil {
		return nil, false, err
	}

	if created {
		stored := *c
		return &stored, true, nil
	}

	existing, err := d.GetCertificate(ctx, c.ID)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

func (d *StoreFirestore) GetCertificate(ctx context.Context, id string) (*domain.Certificate, error) {
	var c domain.Certificate
	if err := getDoc(ctx, d.collection(ctx, certificatesCollection).Doc(id), &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func (d *StoreFirestore) query(ctx context.Context, field, value string) ([]*domain.Certificate, error) {
	docSnaps, err := d.collection(ctx, certificatesCollection).
		Where(field, "==", value).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}

	certificates := make([]*domain.Certificate, 0, len(docSnaps))

	for _, docSnap := range docSnaps {
		var c domain.Certificate
		if err := docSnap.DataTo(&c); err != nil {
			return nil, err
		}

		certificates = append(certificates, &c)
	}

	sort.Slice(certificates, func(i, j int) bool {
		return certificates[i].Number < certificates[j].Number
	})

	return certificates, nil
}

func (d *StoreFirestore) GetByNumber(ctx context.Context, number string) (*domain.Certificate, error) {
	certificates, err := d.query(ctx, fieldCertificateNumber, number)
	if err != nil {
		return nil, err
	}

	if len(certificates) == 0 {
		return nil, ErrNotFound
	}

	return certificates[0], nil
}

func (d *StoreFirestore) ListByPurchase(ctx context.Context, purchaseID string) ([]*domain.Certificate, error) {
	return d.query(ctx, fieldPurchaseID, purchaseID)
}

func (d *StoreFirestore) ListByDonation(ctx context.Context, donationID string) ([]*domain.Certificate, error) {
	return d.query(ctx, fieldDonationID, donationID)
}

func (d *StoreFirestore) SetArtifactURL(ctx context.Context, id, url string) (string, error) {
	docRef := d.collection(ctx, certificatesCollection).Doc(id)

	var stored string

	err := d.firestoreClientFun(ctx).RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}

			return err
		}

		var c domain.Certificate
		if err := docSnap.DataTo(&c); err != nil {
			return err
		}

		if c.ArtifactURL != "" {
			stored = c.ArtifactURL
			return nil
		}

		if c.Status == domain.StatusRevoked {
			return ErrRevoked
		}

		stored = url

		return tx.Update(docRef, []firestore.Update{
			{Path: fieldArtifactURL, Value: url},
		})
	}, firestore.MaxAttempts(10))
	if err != nil {
		return "", err
	}

	return stored, nil
}

func (d *StoreFirestore) Revoke(ctx context.Context, id string) (*domain.Certificate, error) {
	docRef := d.collection(ctx, certificatesCollection).Doc(id)

	var c domain.Certificate

	err := d.firestoreClientFun(ctx).RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}

			return err
		}

		if err := docSnap.DataTo(&c); err != nil {
			return err
		}

		if c.Status == domain.StatusRevoked {
			return nil
		}

		c.Status = domain.StatusRevoked

		return tx.Update(docRef, []firestore.Update{
			{Path: fieldStatus, Value: domain.StatusRevoked},
		})
	}, firestore.MaxAttempts(10))
	if err != nil {
		return nil, err
	}

	return &c, nil
}
