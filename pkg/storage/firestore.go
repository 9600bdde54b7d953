package storage

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

// FirestoreConfig selects the project and credentials for the hosted store.
// CredentialsJSON wins over CredentialsFile; with neither set the client falls
// back to application default credentials.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
}

// Firestore implements Storage on Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore client for one run.
func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) ListAccounts(ctx context.Context) ([]model.Document, error) {
	docs, err := collect(f.client.Collection(UsersCollection).Documents(ctx), func(snap *firestore.DocumentSnapshot) (model.Document, bool) {
		return model.Document{ID: snap.Ref.ID, Data: snap.Data()}, true
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return docs, nil
}

func (f *Firestore) ListCredits(ctx context.Context, ownerID string) ([]model.Document, error) {
	it := f.client.Collection(UsersCollection).Doc(ownerID).Collection(CreditsCollection).Documents(ctx)
	docs, err := collect(it, func(snap *firestore.DocumentSnapshot) (model.Document, bool) {
		return model.Document{ID: snap.Ref.ID, Parent: ownerID, Data: snap.Data()}, true
	})
	if err != nil {
		return nil, fmt.Errorf("list credits for %s: %w", ownerID, err)
	}
	return docs, nil
}

// ScanCredits runs a collection-group query over every credits sub-collection.
// Credits collections that do not hang off a users document are ignored.
func (f *Firestore) ScanCredits(ctx context.Context) ([]model.Document, error) {
	docs, err := collect(f.client.CollectionGroup(CreditsCollection).Documents(ctx), func(snap *firestore.DocumentSnapshot) (model.Document, bool) {
		owner, ok := accountOf(snap.Ref)
		if !ok {
			return model.Document{}, false
		}
		return model.Document{ID: snap.Ref.ID, Parent: owner, Data: snap.Data()}, true
	})
	if err != nil {
		return nil, fmt.Errorf("scan credits: %w", err)
	}
	return docs, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

// accountOf returns the users/{id} document a credit reference lives under.
func accountOf(ref *firestore.DocumentRef) (string, bool) {
	coll := ref.Parent
	if coll == nil || coll.Parent == nil {
		return "", false
	}
	owner := coll.Parent
	if owner.Parent == nil || owner.Parent.ID != UsersCollection || owner.Parent.Parent != nil {
		return "", false
	}
	return owner.ID, true
}

func collect(it *firestore.DocumentIterator, convert func(*firestore.DocumentSnapshot) (model.Document, bool)) ([]model.Document, error) {
	defer it.Stop()

	var docs []model.Document
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		if doc, ok := convert(snap); ok {
			docs = append(docs, doc)
		}
	}
}
