package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/CK6170/RotorBalance-go/balance"
	"github.com/CK6170/RotorBalance-go/models"
)

// ResultRecord is one computed session kept so a client can fetch its chart
// or a downloadable report right after POST /balance.
type ResultRecord struct {
	ID       string
	Created  time.Time
	Request  *models.BalanceRequest
	Input    balance.Measurement
	Result   *balance.Result
	Response *models.BalanceResponse
}

// ResultStore is a bounded in-memory cache; the oldest record is evicted
// once capacity is reached. Nothing outlives the process.
type ResultStore struct {
	mu    sync.RWMutex
	cap   int
	m     map[string]*ResultRecord
	order []string
}

func NewResultStore(capacity int) *ResultStore {
	if capacity < 1 {
		capacity = 1
	}
	return &ResultStore{cap: capacity, m: make(map[string]*ResultRecord)}
}

func (s *ResultStore) Put(req *models.BalanceRequest, in balance.Measurement, res *balance.Result, resp *models.BalanceResponse) (*ResultRecord, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	rec := &ResultRecord{ID: id, Created: time.Now(), Request: req, Input: in, Result: res, Response: resp}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = rec
	s.order = append(s.order, id)
	for len(s.order) > s.cap {
		delete(s.m, s.order[0])
		s.order = s.order[1:]
	}
	return rec, nil
}

func (s *ResultStore) Get(id string) (*ResultRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[id]
	return r, ok
}

func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func newID() (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
