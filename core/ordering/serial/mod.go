// Package serial implements an ordering service for a single node.
//
// The transactions are submitted to a single goroutine that processes them one
// after the other. Each transaction is validated and committed to the
// key/value database in its own database transaction, so that the store always
// reflects a prefix of the total order.
package serial

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/core"
	"go.dedis.ch/coursemarket/core/ordering"
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/store/kv"
	"go.dedis.ch/coursemarket/core/txn"
	"go.dedis.ch/coursemarket/core/validation"
	"golang.org/x/xerrors"
)

var (
	// StateBucket is the name of the bucket holding the state of the
	// contracts.
	StateBucket = []byte("coursemarket.state")

	metaBucket = []byte("coursemarket.ordering")
	indexKey   = []byte("index")
	genesisKey = []byte("genesis")
)

// watchSize is the number of events a watcher can have pending before the
// next ones are dropped.
const watchSize = 100

var (
	promIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coursemarket_ordering_index",
		Help: "index of the latest committed transaction",
	})

	promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursemarket_ordering_transactions_total",
		Help: "total number of processed transactions by refusal",
	}, []string{"refusal"})

	promDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coursemarket_ordering_dropped_events_total",
		Help: "total number of events dropped for slow watchers",
	})
)

func init() {
	coursemarket.PromCollectors = append(coursemarket.PromCollectors, promIndex, promTxs, promDropped)
}

type request struct {
	tx      txn.Transaction
	genesis func(store.Snapshot) error
	resp    chan response
}

type response struct {
	res  validation.TransactionResult
	done bool
	err  error
}

// Service is an ordering service that processes the transactions in the order
// they are received.
//
// - implements ordering.Service
type Service struct {
	db         kv.DB
	validation validation.Service
	watcher    *core.Watcher
	logger     zerolog.Logger

	index   uint64
	started int32

	reqs      chan request
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewService creates a new service on top of the database. The index is
// recovered from the database.
func NewService(db kv.DB, val validation.Service) (*Service, error) {
	var index uint64

	err := db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(metaBucket)
		if bucket == nil {
			return nil
		}

		value := bucket.Get(indexKey)
		if len(value) == 8 {
			index = binary.LittleEndian.Uint64(value)
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to read index: %v", err)
	}

	s := &Service{
		db:         db,
		validation: val,
		watcher:    core.NewWatcher(),
		logger:     coursemarket.Logger.With().Str("service", "ordering").Logger(),
		index:      index,
		reqs:       make(chan request),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
	}

	promIndex.Set(float64(index))

	return s, nil
}

// Listen starts the routine that processes the requests.
func (s *Service) Listen() error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return xerrors.New("service already started")
	}

	go s.loop()

	s.logger.Info().Uint64("index", s.GetIndex()).Msg("ordering service started")

	return nil
}

// Submit implements ordering.Service. It waits for the transaction to be
// processed and returns its result. A transaction already sent to the routine
// is processed even if the context is done before the result is available.
func (s *Service) Submit(ctx context.Context, tx txn.Transaction) (validation.TransactionResult, error) {
	resp, err := s.send(ctx, request{tx: tx})
	if err != nil {
		return nil, xerrors.Errorf("submit failed: %v", err)
	}

	return resp.res, nil
}

// Genesis runs the function on the state the very first time it is called for
// the database. It returns true if the function has been executed. Nothing is
// written if the function returns an error.
func (s *Service) Genesis(ctx context.Context, fn func(store.Snapshot) error) (bool, error) {
	resp, err := s.send(ctx, request{genesis: fn})
	if err != nil {
		return false, xerrors.Errorf("genesis failed: %v", err)
	}

	return resp.done, nil
}

// GetStore implements ordering.Service. It returns a readable store over the
// latest committed state.
func (s *Service) GetStore() store.Readable {
	return kv.NewReadable(s.db, StateBucket)
}

// GetIndex implements ordering.Service. It returns the index of the latest
// committed transaction.
func (s *Service) GetIndex() uint64 {
	return atomic.LoadUint64(&s.index)
}

// Watch implements ordering.Service. It returns a channel that is populated
// with the events of the committed transactions until the context is done. The
// processing never waits for the watcher: an event is dropped when the channel
// already holds the maximum of pending events.
func (s *Service) Watch(ctx context.Context) <-chan ordering.Event {
	ch := make(chan ordering.Event, watchSize)

	obs := &observer{ctx: ctx, ch: ch, logger: s.logger}
	s.watcher.Add(obs)

	go func() {
		<-ctx.Done()
		s.watcher.Remove(obs)
	}()

	return ch
}

// Close implements ordering.Service. It stops the routine and waits for the
// request in progress, if any.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
	})

	if atomic.LoadInt32(&s.started) == 1 {
		<-s.done
	}

	return nil
}

func (s *Service) send(ctx context.Context, req request) (response, error) {
	req.resp = make(chan response, 1)

	select {
	case s.reqs <- req:
	case <-ctx.Done():
		return response{}, xerrors.Errorf("context: %v", ctx.Err())
	case <-s.closing:
		return response{}, xerrors.New("service is closed")
	}

	select {
	case resp := <-req.resp:
		return resp, resp.err
	case <-ctx.Done():
		return response{}, xerrors.Errorf("context: %v", ctx.Err())
	}
}

func (s *Service) loop() {
	defer close(s.done)

	for {
		select {
		case <-s.closing:
			return
		case req := <-s.reqs:
			if req.genesis != nil {
				done, err := s.runGenesis(req.genesis)
				req.resp <- response{done: done, err: err}

				continue
			}

			res, err := s.process(req.tx)
			if err != nil {
				s.logger.Err(err).Msg("failed to process transaction")
			}

			req.resp <- response{res: res, err: err}
		}
	}
}

func (s *Service) process(tx txn.Transaction) (validation.TransactionResult, error) {
	var res validation.TransactionResult

	index := s.GetIndex() + 1

	err := s.db.Update(func(wtx kv.WritableTx) error {
		bucket, err := wtx.GetBucketOrCreate(StateBucket)
		if err != nil {
			return xerrors.Errorf("state bucket: %v", err)
		}

		result, err := s.validation.Validate(kv.NewSnapshot(bucket), []txn.Transaction{tx})
		if err != nil {
			return xerrors.Errorf("validation failed: %v", err)
		}

		res = result.GetTransactionResults()[0]

		meta, err := wtx.GetBucketOrCreate(metaBucket)
		if err != nil {
			return xerrors.Errorf("meta bucket: %v", err)
		}

		buffer := make([]byte, 8)
		binary.LittleEndian.PutUint64(buffer, index)

		err = meta.Set(indexKey, buffer)
		if err != nil {
			return xerrors.Errorf("failed to write index: %v", err)
		}

		wtx.OnCommit(func() {
			atomic.StoreUint64(&s.index, index)
		})

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("database failed: %v", err)
	}

	_, reason := res.GetStatus()
	refusal := res.GetRefusal()

	promIndex.Set(float64(index))
	promTxs.WithLabelValues(refusal.String()).Inc()

	s.logger.Debug().
		Uint64("index", index).
		Hex("tx", tx.GetID()).
		Stringer("refusal", refusal).
		Str("reason", reason).
		Msg("transaction committed")

	s.watcher.Notify(ordering.Event{Index: index, Result: res})

	return res, nil
}

func (s *Service) runGenesis(fn func(store.Snapshot) error) (bool, error) {
	done := false

	err := s.db.Update(func(wtx kv.WritableTx) error {
		meta, err := wtx.GetBucketOrCreate(metaBucket)
		if err != nil {
			return xerrors.Errorf("meta bucket: %v", err)
		}

		if meta.Get(genesisKey) != nil {
			return nil
		}

		bucket, err := wtx.GetBucketOrCreate(StateBucket)
		if err != nil {
			return xerrors.Errorf("state bucket: %v", err)
		}

		err = fn(kv.NewSnapshot(bucket))
		if err != nil {
			return xerrors.Errorf("function failed: %v", err)
		}

		err = meta.Set(genesisKey, []byte{1})
		if err != nil {
			return xerrors.Errorf("failed to write genesis: %v", err)
		}

		done = true

		return nil
	})
	if err != nil {
		return false, xerrors.Errorf("database failed: %v", err)
	}

	if done {
		s.logger.Info().Msg("genesis committed")
	}

	return done, nil
}

// observer forwards the events to a channel until the context is done.
//
// - implements core.Observer
type observer struct {
	ctx    context.Context
	ch     chan ordering.Event
	logger zerolog.Logger
}

// NotifyCallback implements core.Observer. It sends the event to the channel
// if it has room for it, otherwise the event is dropped.
func (o *observer) NotifyCallback(event interface{}) {
	if o.ctx.Err() != nil {
		return
	}

	evt := event.(ordering.Event)

	select {
	case o.ch <- evt:
	default:
		promDropped.Inc()
		o.logger.Warn().Uint64("index", evt.Index).Msg("watcher is full, event dropped")
	}
}
