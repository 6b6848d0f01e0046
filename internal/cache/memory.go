package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// memoryEntry es un entry del Tier 1. storedAt se refresca en cada hit,
// así que el orden de eviction es "menos recientemente accedido primero"
// y la frescura del TTL es deslizante.
type memoryEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
	tags     []string
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// MemoryConfig configura el Tier 1.
type MemoryConfig struct {
	// MaxEntries acota el cache. Default: DefaultMaxEntries.
	MaxEntries int

	// DefaultTTL se aplica cuando Set no indica TTL. Default: DefaultTTL.
	DefaultTTL time.Duration

	// SweepInterval es el período del janitor. Default: DefaultSweep.
	// Negativo desactiva el janitor (útil en tests).
	SweepInterval time.Duration

	// Eviction es el selector de política. Hoy solo está implementada
	// "oldest" (menor storedAt); cualquier otro valor se acepta y se
	// loguea, pero el comportamiento es el mismo.
	Eviction string

	Logger *zap.Logger
}

// Memory es el Tier 1: un store in-process acotado y rápido.
//
// Nunca retorna errores a sus callers: cualquier falta interna se cuenta
// en los contadores y la operación degrada a miss / no-op. Este nivel no
// puede ser la razón por la que falla un request.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry

	max        int
	defaultTTL time.Duration

	counters counters
	log      *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemory crea el Tier 1 y arranca su janitor de limpieza.
// El janitor se detiene con Close().
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Eviction != "" && cfg.Eviction != "oldest" {
		cfg.Logger.Warn("cache: eviction selector not implemented, using oldest",
			zap.String("eviction", cfg.Eviction))
	}

	m := &Memory{
		entries:    make(map[string]*memoryEntry),
		max:        cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		log:        cfg.Logger,
		stop:       make(chan struct{}),
	}

	sweep := cfg.SweepInterval
	if sweep == 0 {
		sweep = DefaultSweep
	}
	if sweep > 0 {
		go m.janitor(sweep)
	}
	return m
}

// Get retorna el valor si existe y no expiró. Un hit refresca storedAt.
// Expirados se eliminan lazy y cuentan como miss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	now := time.Now()

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		m.counters.misses.Add(1)
		return nil, ErrNotFound
	}
	if e.expired(now) {
		delete(m.entries, key)
		m.mu.Unlock()
		m.counters.misses.Add(1)
		return nil, ErrNotFound
	}
	e.storedAt = now
	val := e.value
	m.mu.Unlock()

	m.counters.hits.Add(1)
	return val, nil
}

// Set guarda un valor. Si el cache está lleno, desaloja exactamente un
// entry (el de menor storedAt) antes de insertar.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return m.SetWithTags(key, value, ttl, nil)
}

// SetWithTags es Set con el tag set opcional del entry.
func (m *Memory) SetWithTags(key string, value []byte, ttl time.Duration, tags []string) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evictOldest()
	}
	m.entries[key] = &memoryEntry{
		value:    value,
		storedAt: time.Now(),
		ttl:      ttl,
		tags:     tags,
	}
	m.mu.Unlock()

	m.counters.sets.Add(1)
	return nil
}

// evictOldest elimina el entry con menor storedAt. Se llama con el lock
// tomado.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// Delete elimina una key. Idempotente.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	m.counters.deletes.Add(1)
	return nil
}

// Exists verifica existencia con la misma semántica de expiración que Get,
// pero sin tocar contadores ni refrescar storedAt. La expiración se evalúa
// con el lock tomado: Get reescribe storedAt bajo el write lock.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	now := time.Now()
	m.mu.RLock()
	e, ok := m.entries[key]
	alive := ok && !e.expired(now)
	m.mu.RUnlock()
	return alive, nil
}

// Clear elimina keys. Sin patrón borra todo; con patrón borra solo las
// keys que matchean (ver Match). Retorna cuántas eliminó.
func (m *Memory) Clear(pattern string) int {
	if pattern == "" {
		m.mu.Lock()
		n := len(m.entries)
		m.entries = make(map[string]*memoryEntry)
		m.mu.Unlock()
		return n
	}
	return m.ClearFunc(func(k string) bool { return Match(pattern, k) })
}

// ClearFunc elimina toda key que el predicado acepte. Retorna cuántas.
func (m *Memory) ClearFunc(match func(key string) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.entries {
		if match(k) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Keys retorna las keys vivas que matchean el patrón ("" = todas).
func (m *Memory) Keys(pattern string) []string {
	return m.KeysFunc(func(k string) bool {
		return pattern == "" || Match(pattern, k)
	})
}

// KeysFunc retorna las keys vivas que el predicado acepte.
func (m *Memory) KeysFunc(match func(key string) bool) []string {
	now := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if e.expired(now) {
			continue
		}
		if match(k) {
			out = append(out, k)
		}
	}
	return out
}

// Ping siempre responde ok: el Tier 1 vive en el proceso.
func (m *Memory) Ping(_ context.Context) error { return nil }

// Close detiene el janitor y suelta los entries. Idempotente.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	m.entries = make(map[string]*memoryEntry)
	m.mu.Unlock()
	return nil
}

// Len retorna la cantidad de entries (incluye expirados aún no barridos).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats retorna un snapshot de los contadores. Errors queda siempre en 0
// en este nivel: ninguna operación del Tier 1 puede fallar (ver Memory).
func (m *Memory) Stats() Stats {
	s := m.counters.snapshot()
	s.Entries = m.Len()
	return s
}

// janitor barre entradas expiradas cada interval, acotando el crecimiento
// de memoria aunque nadie lea. Solo borra lo que verifica expirado al
// momento del barrido, así nunca pisa un entry recién refrescado.
func (m *Memory) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	now := time.Now()
	m.mu.Lock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

var _ Store = (*Memory)(nil)
