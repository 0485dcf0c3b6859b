// Package inmem is an in-memory implementation of the service storage
// interfaces. It backs the test suite and local development without Postgres;
// transactional semantics are emulated with a snapshot/restore under one lock.
package inmem

import (
	"sync"
	"time"

	"schoolcrm/internal/models"
)

type DB struct {
	mu  sync.RWMutex
	seq int

	pipelines map[int]*models.Pipeline
	stages    map[int]*models.Stage
	deals     map[int]*models.Deal
	contacts  map[int]*models.ContactProfile
	users     map[int]*models.User
	history   []*models.HistoryEntry
	messages  map[int][]*models.MessagePreview
}

func Open() *DB {
	return &DB{
		pipelines: make(map[int]*models.Pipeline),
		stages:    make(map[int]*models.Stage),
		deals:     make(map[int]*models.Deal),
		contacts:  make(map[int]*models.ContactProfile),
		users:     make(map[int]*models.User),
		messages:  make(map[int][]*models.MessagePreview),
	}
}

// nextID requires db.mu to be held.
func (db *DB) nextID() int {
	db.seq++
	return db.seq
}

// SeedContact inserts a contact profile directly; the profile lifecycle is
// owned outside this core, so there is no service-level create for it.
func (db *DB) SeedContact(c *models.ContactProfile) *models.ContactProfile {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == 0 {
		c.ID = db.nextID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	db.contacts[c.ID] = cloneContact(c)
	return c
}

// AddMessage records an inbound/outbound message preview for board display.
func (db *DB) AddMessage(contactID int, body string, sentAt time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.messages[contactID] = append(db.messages[contactID], &models.MessagePreview{Body: body, SentAt: sentAt})
}

// GetContact exposes contact state for assertions.
func (db *DB) GetContact(id int) *models.ContactProfile {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c := db.contacts[id]
	if c == nil {
		return nil
	}
	return cloneContact(c)
}

type snapshot struct {
	seq       int
	pipelines map[int]*models.Pipeline
	stages    map[int]*models.Stage
	deals     map[int]*models.Deal
	contacts  map[int]*models.ContactProfile
	users     map[int]*models.User
	history   []*models.HistoryEntry
}

// snapshotLocked requires db.mu to be held.
func (db *DB) snapshotLocked() *snapshot {
	s := &snapshot{
		seq:       db.seq,
		pipelines: make(map[int]*models.Pipeline, len(db.pipelines)),
		stages:    make(map[int]*models.Stage, len(db.stages)),
		deals:     make(map[int]*models.Deal, len(db.deals)),
		contacts:  make(map[int]*models.ContactProfile, len(db.contacts)),
		users:     make(map[int]*models.User, len(db.users)),
		history:   make([]*models.HistoryEntry, len(db.history)),
	}
	for id, p := range db.pipelines {
		cp := *p
		s.pipelines[id] = &cp
	}
	for id, st := range db.stages {
		cp := *st
		s.stages[id] = &cp
	}
	for id, d := range db.deals {
		cp := *d
		s.deals[id] = &cp
	}
	for id, c := range db.contacts {
		s.contacts[id] = cloneContact(c)
	}
	for id, u := range db.users {
		cp := *u
		s.users[id] = &cp
	}
	copy(s.history, db.history)
	return s
}

// restoreLocked requires db.mu to be held.
func (db *DB) restoreLocked(s *snapshot) {
	db.seq = s.seq
	db.pipelines = s.pipelines
	db.stages = s.stages
	db.deals = s.deals
	db.contacts = s.contacts
	db.users = s.users
	db.history = s.history
}

func cloneContact(c *models.ContactProfile) *models.ContactProfile {
	cp := *c
	if c.ConvertedAt != nil {
		t := *c.ConvertedAt
		cp.ConvertedAt = &t
	}
	if c.LostAt != nil {
		t := *c.LostAt
		cp.LostAt = &t
	}
	return &cp
}

func cloneEntry(e *models.HistoryEntry) *models.HistoryEntry {
	cp := *e
	if e.FromStageID != nil {
		v := *e.FromStageID
		cp.FromStageID = &v
	}
	return &cp
}
