// Package store keeps remesh results in a badger db, keyed by flowmesh.ResultKey.
package store

import (
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/dgraph-io/badger/v3"
	"github.com/dustin/go-humanize"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Store database format:

	gStoreStateKey => storeState (MajorVers, MinorVers, NumResults as varints)

	gResultPrefix, ResultKey (uint64, big endian)  => PolyMesh (see PolyMesh.Marshal)
	...

Results sort by key, so a prefix scan visits them in ResultKey order.

***/

var (
	gStoreStateKey = []byte{0x00, 0x00, 0x01}
	gResultPrefix  = []byte{0x01}
)

const (
	kMajorVers = 2024
	kMinorVers = 1
)

type storeState struct {
	MajorVers  uint64
	MinorVers  uint64
	NumResults uint64
}

func (state *storeState) Marshal() []byte {
	buf := proto.NewBuffer(make([]byte, 0, 16))
	buf.EncodeVarint(state.MajorVers)
	buf.EncodeVarint(state.MinorVers)
	buf.EncodeVarint(state.NumResults)
	return buf.Bytes()
}

func (state *storeState) Unmarshal(src []byte) error {
	buf := proto.NewBuffer(src)
	var err error
	for _, field := range []*uint64{&state.MajorVers, &state.MinorVers, &state.NumResults} {
		if *field, err = buf.DecodeVarint(); err != nil {
			return errors.Wrap(flowmesh.ErrUnmarshal, "store state")
		}
	}
	return nil
}

// store is a badger db of remesh results
type store struct {
	ctx      flowmesh.StoreContext
	readOnly bool
	mu       sync.RWMutex // guards state and db
	state    storeState
	db       *badger.DB
}

// OpenStore opens (or creates) the store at opts.DbPathName and attaches it to ctx until closed.
// An empty DbPathName opens a memory resident store.
func OpenStore(ctx flowmesh.StoreContext, opts flowmesh.StoreOpts) (flowmesh.Store, error) {
	st := &store{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(flowmesh.ErrBadStoreParam, "DbPathName must be specified for a read-only store")
		}
		dbOpts.InMemory = true
	}

	var err error
	st.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, the ctx is considered blocked until the store closes
	ctx.AttachStore(st)

	err = st.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		st.state.MajorVers = kMajorVers
		st.state.MinorVers = kMinorVers
	}
	if err == nil && (st.state.MajorVers != kMajorVers || st.state.MinorVers != kMinorVers) {
		err = errors.Errorf("store version %d.%d is incompatible", st.state.MajorVers, st.state.MinorVers)
	}
	if err != nil {
		st.Close()
		return nil, err
	}

	if len(opts.DbPathName) > 0 {
		klog.V(1).Infof("opened %q: %s results", opts.DbPathName, humanize.Comma(st.NumResults()))
	}
	return st, nil
}

func (st *store) loadState() error {
	return st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gStoreStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return st.state.Unmarshal(val)
		})
	})
}

func formResultKey(key flowmesh.ResultKey) []byte {
	var buf [9]byte
	buf[0] = gResultPrefix[0]
	binary.BigEndian.PutUint64(buf[1:], uint64(key))
	return buf[:]
}

func (st *store) Put(key flowmesh.ResultKey, mesh *flowmesh.PolyMesh) error {
	if st.readOnly {
		return flowmesh.ErrReadOnly
	}

	meshBuf, err := mesh.Marshal()
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.db == nil {
		return flowmesh.ErrStoreClosed
	}

	state := st.state
	err = st.db.Update(func(txn *badger.Txn) error {
		dbKey := formResultKey(key)
		_, err := txn.Get(dbKey)
		if err == badger.ErrKeyNotFound {
			state.NumResults++
			if err = txn.Set(gStoreStateKey, state.Marshal()); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return txn.Set(dbKey, meshBuf)
	})
	if err != nil {
		return errors.Wrapf(err, "put result %016x", uint64(key))
	}
	st.state = state
	return nil
}

func (st *store) Get(key flowmesh.ResultKey) (*flowmesh.PolyMesh, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	db := st.db
	if db == nil {
		return nil, flowmesh.ErrStoreClosed
	}

	mesh := &flowmesh.PolyMesh{}
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(formResultKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return mesh.Unmarshal(val)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(flowmesh.ErrResultNotFound, "key %016x", uint64(key))
	}
	if err != nil {
		return nil, err
	}
	return mesh, nil
}

func (st *store) ForEach(fn func(key flowmesh.ResultKey, mesh *flowmesh.PolyMesh) error) error {
	st.mu.RLock()
	defer st.mu.RUnlock()
	db := st.db
	if db == nil {
		return flowmesh.ErrStoreClosed
	}

	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         gResultPrefix,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := flowmesh.ResultKey(binary.BigEndian.Uint64(item.Key()[1:]))
			mesh := &flowmesh.PolyMesh{}
			if err := item.Value(mesh.Unmarshal); err != nil {
				return errors.Wrapf(err, "result %016x", uint64(key))
			}
			if err := fn(key, mesh); err != nil {
				return err
			}
		}
		return nil
	})
}

func (st *store) NumResults() int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return int64(st.state.NumResults)
}

func (st *store) IsReadOnly() bool {
	return st.readOnly
}

func (st *store) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	var err error
	if st.db != nil {
		err = st.db.Close()
		st.db = nil
		st.ctx.DetachStore(st)
		st.ctx = nil
	}
	return err
}
