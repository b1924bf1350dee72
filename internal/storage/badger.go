package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	badgerKeyPrefix = "save/"
	// Each value carries an 8-byte big-endian write time ahead of the blob.
	badgerHeaderSize = 8
)

// BadgerStore keeps blobs in a Badger v3 database. Each Write is a single
// transaction, so a name is replaced atomically.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger
	now    func() time.Time

	closed    atomic.Bool
	gcRuns    atomic.Uint64
	lastGC    atomic.Int64 // unix ms
	collector *badgerCollector

	stop chan struct{}
	done chan struct{}
}

// NewBadgerStore opens (or creates) a Badger database for save files. A
// background goroutine runs value log GC every GCInterval.
func NewBadgerStore(cfg Config, logger *slog.Logger) (*BadgerStore, error) {
	bcfg := cfg.Badger
	if cfg.Dir == "" && !bcfg.InMemory {
		return nil, errors.New("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bcfg.GCThreshold <= 0 || bcfg.GCThreshold >= 1 {
		bcfg.GCThreshold = DefaultBadgerConfig().GCThreshold
	}
	interval, err := time.ParseDuration(bcfg.GCInterval)
	if bcfg.GCInterval == "" || err != nil || interval <= 0 {
		interval = 10 * time.Minute
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(badgerLog{logger})
	if bcfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	if bcfg.CacheSize > 0 {
		opts = opts.WithBlockCacheSize(bcfg.CacheSize)
	}
	if bcfg.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(bcfg.ValueLogFileSize)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    bcfg,
		logger: logger,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.runGC(interval)
	logger.Debug("badger store opened", "dir", cfg.Dir, "in_memory", bcfg.InMemory, "gc_interval", interval)
	return s, nil
}

// Write stores data under name. Durable writes sync the database before
// returning.
func (s *BadgerStore) Write(name string, data []byte, durable bool) error {
	if err := validName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	value := make([]byte, badgerHeaderSize+len(data))
	binary.BigEndian.PutUint64(value, uint64(s.now().UnixMilli()))
	copy(value[badgerHeaderSize:], data)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+name), value)
	})
	if err != nil {
		return fmt.Errorf("badger: set: %w", err)
	}
	if durable && !s.cfg.InMemory {
		if err := s.db.Sync(); err != nil {
			return fmt.Errorf("badger: sync: %w", err)
		}
	}
	return nil
}

// Read returns the blob stored under name.
func (s *BadgerStore) Read(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(value) < badgerHeaderSize {
		return nil, fmt.Errorf("badger: corrupt value for %q", name)
	}
	return value[badgerHeaderSize:], nil
}

// Remove deletes name.
func (s *BadgerStore) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + name))
	})
}

// List iterates keys under prefix in key order.
func (s *BadgerStore) List(prefix string) ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), badgerKeyPrefix)
			var modTime int64
			err := item.Value(func(v []byte) error {
				if len(v) >= badgerHeaderSize {
					modTime = int64(binary.BigEndian.Uint64(v))
				}
				return nil
			})
			if err != nil {
				return err
			}
			out = append(out, Entry{
				Name:    name,
				Size:    item.ValueSize() - badgerHeaderSize,
				ModTime: modTime,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GC rewrites value log files until Badger finds nothing worth rewriting
// and returns the number of files rewritten. In-memory stores have no
// value log.
func (s *BadgerStore) GC() (int, error) {
	if s.cfg.InMemory {
		return 0, nil
	}
	n := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("badger: gc: %w", err)
		}
		n++
	}
	s.gcRuns.Add(1)
	s.lastGC.Store(s.now().UnixMilli())
	if n > 0 {
		s.logger.Debug("badger value log rewritten", "files", n)
	}
	return n, nil
}

func (s *BadgerStore) runGC(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if _, err := s.GC(); err != nil {
				s.logger.Warn("badger gc failed", "error", err)
			}
		}
	}
}

// Close stops the GC goroutine and closes the database. Later calls are
// no-ops.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	<-s.done
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	return nil
}

// RegisterMetrics exposes database sizes and GC activity to reg. Values
// are read at scrape time.
func (s *BadgerStore) RegisterMetrics(reg prometheus.Registerer) *BadgerStore {
	s.collector = &badgerCollector{
		s: s,
		lsm: prometheus.NewDesc("roguesave_badger_lsm_size_bytes",
			"Size of the Badger LSM tree.", nil, nil),
		vlog: prometheus.NewDesc("roguesave_badger_value_log_size_bytes",
			"Size of the Badger value log.", nil, nil),
		gcRuns: prometheus.NewDesc("roguesave_badger_gc_runs_total",
			"Completed value log GC passes.", nil, nil),
		lastGC: prometheus.NewDesc("roguesave_badger_last_gc_timestamp_seconds",
			"Unix time of the last value log GC pass.", nil, nil),
	}
	reg.MustRegister(s.collector)
	return s
}

type badgerCollector struct {
	s                         *BadgerStore
	lsm, vlog, gcRuns, lastGC *prometheus.Desc
}

func (c *badgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lsm
	ch <- c.vlog
	ch <- c.gcRuns
	ch <- c.lastGC
}

func (c *badgerCollector) Collect(ch chan<- prometheus.Metric) {
	if c.s.closed.Load() {
		return
	}
	lsm, vlog := c.s.db.Size()
	ch <- prometheus.MustNewConstMetric(c.lsm, prometheus.GaugeValue, float64(lsm))
	ch <- prometheus.MustNewConstMetric(c.vlog, prometheus.GaugeValue, float64(vlog))
	ch <- prometheus.MustNewConstMetric(c.gcRuns, prometheus.CounterValue, float64(c.s.gcRuns.Load()))
	ch <- prometheus.MustNewConstMetric(c.lastGC, prometheus.GaugeValue, float64(c.s.lastGC.Load())/1000)
}

// badgerLog routes Badger's printf-style logging to slog. Badger's info
// output is chatty, so it is demoted to debug.
type badgerLog struct{ l *slog.Logger }

func (b badgerLog) Errorf(f string, args ...any)   { b.l.Error(strings.TrimSpace(fmt.Sprintf(f, args...))) }
func (b badgerLog) Warningf(f string, args ...any) { b.l.Warn(strings.TrimSpace(fmt.Sprintf(f, args...))) }
func (b badgerLog) Infof(f string, args ...any)    { b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, args...))) }
func (b badgerLog) Debugf(f string, args ...any)   { b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, args...))) }

// Open builds the store selected by cfg.Engine.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Engine {
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "badger":
		return NewBadgerStore(cfg, logger)
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}
