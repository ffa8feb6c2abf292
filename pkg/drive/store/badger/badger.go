// Package badger provides a BadgerDB-backed drive descriptor store.
//
// Descriptors are stored as JSON values under "d:<uuid>" keys. BadgerDB is
// embedded, so the registry survives restarts without an external database.
package badger

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// prefixDrive namespaces descriptor keys: "d:<uuid>". The prefix leaves room
// for other namespaces should the registry ever need them.
const prefixDrive = "d:"

// keyDrive generates the key for a descriptor.
func keyDrive(id uuid.UUID) []byte {
	return []byte(prefixDrive + id.String())
}

// Store is a BadgerDB-backed drive.Store implementation.
type Store struct {
	db   *badgerdb.DB
	path string
}

// New opens (or creates) the BadgerDB database at path.
func New(path string) (*Store, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, nestfserrors.NewIOError(path, fmt.Errorf("failed to open drive store: %w", err))
	}

	logger.Debug("drive store opened",
		logger.Store("badger"),
		logger.Path(path),
	)

	return &Store{db: db, path: path}, nil
}

// Put writes a descriptor, overwriting any previous version stored under the
// same identifier.
func (s *Store) Put(ctx context.Context, d *drive.Drive) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d == nil || d.ID == uuid.Nil {
		return nestfserrors.NewInvalidArgumentError("descriptor and its id must be set")
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		data, err := encodeDrive(d)
		if err != nil {
			return err
		}
		return txn.Set(keyDrive(d.ID), data)
	})
	return s.storeErr(err)
}

// Get returns the descriptor with the given identifier.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*drive.Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var d *drive.Drive

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyDrive(id))
		if err == badgerdb.ErrKeyNotFound {
			return nestfserrors.NewDriveNotFoundError(id.String())
		}
		if err != nil {
			return fmt.Errorf("failed to get drive: %w", err)
		}

		return item.Value(func(val []byte) error {
			decoded, err := decodeDrive(val)
			if err != nil {
				return err
			}
			d = decoded
			return nil
		})
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	return d, nil
}

// Delete removes the descriptor with the given identifier.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		key := keyDrive(id)

		if _, err := txn.Get(key); err == badgerdb.ErrKeyNotFound {
			return nestfserrors.NewDriveNotFoundError(id.String())
		} else if err != nil {
			return fmt.Errorf("failed to check drive: %w", err)
		}

		return txn.Delete(key)
	})
	return s.storeErr(err)
}

// List returns every stored descriptor, sorted by name.
func (s *Store) List(ctx context.Context) ([]drive.Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drives := make([]drive.Drive, 0)

	err := s.db.View(func(txn *badgerdb.Txn) error {
		prefix := []byte(prefixDrive)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				d, err := decodeDrive(val)
				if err != nil {
					return err
				}
				drives = append(drives, *d)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	slices.SortFunc(drives, func(a, b drive.Drive) int {
		return strings.Compare(a.Name, b.Name)
	})
	return drives, nil
}

// Healthcheck verifies BadgerDB is accessible and can serve requests. The
// check starts a read transaction; BadgerDB reports an error if the database
// is closed or corrupted.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.View(func(txn *badgerdb.Txn) error {
		return nil
	})
	if err != nil {
		return nestfserrors.NewIOError(s.path, fmt.Errorf("healthcheck failed: %w", err))
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return nestfserrors.NewIOError(s.path, fmt.Errorf("failed to close drive store: %w", err))
	}

	logger.Debug("drive store closed",
		logger.Store("badger"),
		logger.Path(s.path),
	)
	return nil
}

// storeErr maps storage failures into the shared taxonomy, passing already
// typed errors through untouched.
func (s *Store) storeErr(err error) error {
	if err == nil {
		return nil
	}
	var typed *nestfserrors.Error
	if stderrors.As(err, &typed) {
		return err
	}
	return nestfserrors.NewIOError(s.path, err)
}

func encodeDrive(d *drive.Drive) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode drive descriptor: %w", err)
	}
	return data, nil
}

func decodeDrive(data []byte) (*drive.Drive, error) {
	var d drive.Drive
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode drive descriptor: %w", err)
	}
	return &d, nil
}
