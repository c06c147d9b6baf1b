//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"estate-desk/domain"
	"estate-desk/errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	profilePrefix = "profile"
	listingPrefix = "listing"
)

// IDirectoryRepository gives read access to the accounts and listings owned by
// the rest of the application. The desk only writes them when seeding.
type IDirectoryRepository interface {
	PutProfile(ctx context.Context, profile domain.Profile) error
	GetProfile(ctx context.Context, email string) (domain.Profile, error)
	PutListing(ctx context.Context, listing domain.Listing) error
	GetListing(ctx context.Context, id string) (domain.Listing, error)
}

type DirectoryRepository struct {
	db *badger.DB
}

func NewDirectoryRepository(db *badger.DB) IDirectoryRepository {
	return &DirectoryRepository{db: db}
}

type DiskProfile struct {
	Email       string
	DisplayName string
	Role        string
}

type DiskListing struct {
	ID         string
	Title      string
	Thumbnail  string
	OwnerEmail string
	AgentEmail string
}

func (d *DirectoryRepository) PutProfile(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.put(key(profilePrefix, profile.Email), DiskProfile{
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        string(profile.Role),
	})
}

// GetProfile returns errors.ErrProfileNotFound for unknown or deleted accounts.
func (d *DirectoryRepository) GetProfile(ctx context.Context, email string) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}
	var disk DiskProfile
	if err := d.get(key(profilePrefix, email), &disk); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrProfileNotFound, email)
		}
		return domain.Profile{}, err
	}
	return domain.Profile{
		Email:       disk.Email,
		DisplayName: disk.DisplayName,
		Role:        domain.Role(disk.Role),
	}, nil
}

func (d *DirectoryRepository) PutListing(ctx context.Context, listing domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.put(key(listingPrefix, listing.ID), DiskListing(listing))
}

// GetListing returns errors.ErrPropertyNotFound for unknown listings.
func (d *DirectoryRepository) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, err
	}
	var disk DiskListing
	if err := d.get(key(listingPrefix, id), &disk); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Listing{}, fmt.Errorf("%w: %s", errors.ErrPropertyNotFound, id)
		}
		return domain.Listing{}, err
	}
	return domain.Listing(disk), nil
}

func (d *DirectoryRepository) put(k []byte, record any) error {
	bytes, err := marshal(record)
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, bytes)
	})
}

func (d *DirectoryRepository) get(k []byte, record any) error {
	return d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshal(val, record)
		})
	})
}
