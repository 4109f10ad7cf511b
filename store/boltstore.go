package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/splitter"
)

var (
	bucketMeta         = []byte("meta")
	bucketEntitlements = []byte("entitlements")
	bucketEvents       = []byte("events")
	bucketDeposits     = []byte("deposits")

	keyController    = []byte("controller")
	keyBeneficiaries = []byte("beneficiaries")
	keyPool          = []byte("pool")
)

// DefaultLockTimeout bounds how long OpenBoltStore waits for the file lock.
const DefaultLockTimeout = time.Second

// BoltStore persists ledger state in a bbolt database. bbolt holds an
// exclusive lock on the file, so only one process can open a ledger.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: DefaultLockTimeout})
	if err != nil {
		if errors.Is(err, berrors.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
		}
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketEntitlements, bucketEvents, bucketDeposits} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Close closes the underlying database and releases the file lock.
func (s *BoltStore) Close() error { return s.db.Close() }

// View runs fn in a read-only bbolt transaction.
func (s *BoltStore) View(fn func(ReadTx) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update runs fn in a read-write bbolt transaction. The transaction is
// rolled back if fn returns an error.
func (s *BoltStore) Update(fn func(Tx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// seqKey encodes an event sequence number as an 8-byte big-endian key so
// cursor order matches sequence order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) meta() *bbolt.Bucket { return t.tx.Bucket(bucketMeta) }

func (t *boltTx) Controller() (account.Address, error) {
	data := t.meta().Get(keyController)
	if data == nil {
		return account.Zero, fmt.Errorf("%w: controller", ErrNotFound)
	}
	a, err := account.BytesToAddress(data)
	if err != nil {
		return account.Zero, fmt.Errorf("%w: controller: %w", ErrCorrupt, err)
	}
	return a, nil
}

func (t *boltTx) Beneficiaries() ([]splitter.Beneficiary, error) {
	data := t.meta().Get(keyBeneficiaries)
	if data == nil {
		return nil, fmt.Errorf("%w: beneficiaries", ErrNotFound)
	}
	bs, err := splitter.DeserializeBeneficiaries(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return bs, nil
}

func (t *boltTx) Entitlement(addr account.Address) (splitter.Entitlement, error) {
	data := t.tx.Bucket(bucketEntitlements).Get(addr[:])
	if data == nil {
		return splitter.Entitlement{}, nil
	}
	e, err := splitter.DeserializeEntitlement(data)
	if err != nil {
		return splitter.Entitlement{}, fmt.Errorf("%w: entitlement %s: %w", ErrCorrupt, addr, err)
	}
	return *e, nil
}

func (t *boltTx) ForEachEntitlement(fn func(account.Address, *splitter.Entitlement) error) error {
	return t.tx.Bucket(bucketEntitlements).ForEach(func(k, v []byte) error {
		addr, err := account.BytesToAddress(k)
		if err != nil {
			return fmt.Errorf("%w: entitlement key: %w", ErrCorrupt, err)
		}
		e, err := splitter.DeserializeEntitlement(v)
		if err != nil {
			return fmt.Errorf("%w: entitlement %s: %w", ErrCorrupt, addr, err)
		}
		return fn(addr, e)
	})
}

func (t *boltTx) Pool() (uint256.Int, error) {
	data := t.meta().Get(keyPool)
	if data == nil {
		return uint256.Int{}, nil
	}
	v, err := splitter.DeserializeAmount(data)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("%w: pool: %w", ErrCorrupt, err)
	}
	return *v, nil
}

func (t *boltTx) Events(since uint64, limit int) ([]*events.Event, error) {
	var out []*events.Event
	c := t.tx.Bucket(bucketEvents).Cursor()
	for k, v := c.Seek(seqKey(since + 1)); k != nil; k, v = c.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var e events.Event
		if err := json.Unmarshal(v, &e); err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", ErrCorrupt, binary.BigEndian.Uint64(k), err)
		}
		out = append(out, &e)
	}
	return out, nil
}

func (t *boltTx) LastSeq() (uint64, error) {
	return t.tx.Bucket(bucketEvents).Sequence(), nil
}

func (t *boltTx) DepositSeq(txHash string) (uint64, error) {
	data := t.tx.Bucket(bucketDeposits).Get([]byte(txHash))
	if data == nil {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: deposit %s", ErrCorrupt, txHash)
	}
	return binary.BigEndian.Uint64(data), nil
}

func (t *boltTx) PutController(addr account.Address) error {
	if err := t.meta().Put(keyController, addr.Bytes()); err != nil {
		return fmt.Errorf("store: put controller: %w", err)
	}
	return nil
}

func (t *boltTx) PutBeneficiaries(bs []splitter.Beneficiary) error {
	if bs == nil {
		return fmt.Errorf("%w: beneficiaries", ErrNilParam)
	}
	data, err := splitter.SerializeBeneficiaries(bs)
	if err != nil {
		return err
	}
	if err := t.meta().Put(keyBeneficiaries, data); err != nil {
		return fmt.Errorf("store: put beneficiaries: %w", err)
	}
	return nil
}

func (t *boltTx) PutEntitlement(addr account.Address, e *splitter.Entitlement) error {
	if e == nil {
		return fmt.Errorf("%w: entitlement", ErrNilParam)
	}
	if err := t.tx.Bucket(bucketEntitlements).Put(addr.Bytes(), splitter.SerializeEntitlement(e)); err != nil {
		return fmt.Errorf("store: put entitlement: %w", err)
	}
	return nil
}

func (t *boltTx) PutPool(v *uint256.Int) error {
	if v == nil {
		return fmt.Errorf("%w: pool", ErrNilParam)
	}
	if err := t.meta().Put(keyPool, splitter.SerializeAmount(v)); err != nil {
		return fmt.Errorf("store: put pool: %w", err)
	}
	return nil
}

func (t *boltTx) AppendEvent(e *events.Event) error {
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParam)
	}
	b := t.tx.Bucket(bucketEvents)
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("store: next event sequence: %w", err)
	}
	e.Seq = seq

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store: encode event: %w", err)
	}
	if err := b.Put(seqKey(seq), data); err != nil {
		return fmt.Errorf("store: put event: %w", err)
	}
	return nil
}

func (t *boltTx) PutDeposit(txHash string, seq uint64) error {
	if txHash == "" {
		return fmt.Errorf("%w: deposit hash", ErrNilParam)
	}
	if err := t.tx.Bucket(bucketDeposits).Put([]byte(txHash), seqKey(seq)); err != nil {
		return fmt.Errorf("store: put deposit: %w", err)
	}
	return nil
}
