package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mgmcelwee/evony/internal/model"
)

// memStore is an in-memory Store used by the engine tests.  WithTx holds one
// process-wide mutex for the whole scope, which serializes transactions the
// same way the MySQL store's row locks do, and restores a snapshot of the
// full state when fn fails so rollback semantics match too.
type memStore struct {
	mu          sync.Mutex
	raids       map[uint64]*model.Raid
	raidTroops  map[uint64][]model.RaidTroop
	defTroops   map[uint64][]model.DefenderTroop
	cities      map[uint64]*model.City
	cityTroops  map[uint64]map[uint64]int64
	types       map[uint64]model.TroopType
	typesByCode map[string]model.TroopType
	nextRaidID  uint64
}

func newMemStore() *memStore {
	return &memStore{
		raids:       make(map[uint64]*model.Raid),
		raidTroops:  make(map[uint64][]model.RaidTroop),
		defTroops:   make(map[uint64][]model.DefenderTroop),
		cities:      make(map[uint64]*model.City),
		cityTroops:  make(map[uint64]map[uint64]int64),
		types:       make(map[uint64]model.TroopType),
		typesByCode: make(map[string]model.TroopType),
	}
}

func (s *memStore) addCity(c model.City) {
	s.cities[c.ID] = &c
}

func (s *memStore) addTroopType(tt model.TroopType) {
	s.types[tt.ID] = tt
	s.typesByCode[tt.Code] = tt
}

func (s *memStore) setGarrison(cityID, typeID uint64, count int64) {
	g := s.cityTroops[cityID]
	if g == nil {
		g = make(map[uint64]int64)
		s.cityTroops[cityID] = g
	}
	g[typeID] = count
}

func (s *memStore) garrison(cityID, typeID uint64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cityTroops[cityID][typeID]
}

func (s *memStore) cityStock(cityID uint64) model.Resources {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cities[cityID].Stock
}

// snapshot deep-copies all mutable state so a failed transaction can be
// rolled back wholesale.
func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.nextRaidID = s.nextRaidID
	for id, r := range s.raids {
		r2 := *r
		if r.ResolvedAt != nil {
			t := *r.ResolvedAt
			r2.ResolvedAt = &t
		}
		cp.raids[id] = &r2
	}
	for id, lines := range s.raidTroops {
		cp.raidTroops[id] = append([]model.RaidTroop(nil), lines...)
	}
	for id, rows := range s.defTroops {
		cp.defTroops[id] = append([]model.DefenderTroop(nil), rows...)
	}
	for id, c := range s.cities {
		c2 := *c
		cp.cities[id] = &c2
	}
	for id, g := range s.cityTroops {
		g2 := make(map[uint64]int64, len(g))
		for k, v := range g {
			g2[k] = v
		}
		cp.cityTroops[id] = g2
	}
	cp.types = s.types
	cp.typesByCode = s.typesByCode
	return cp
}

func (s *memStore) restore(snap *memStore) {
	s.raids = snap.raids
	s.raidTroops = snap.raidTroops
	s.defTroops = snap.defTroops
	s.cities = snap.cities
	s.cityTroops = snap.cityTroops
	s.nextRaidID = snap.nextRaidID
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) Raid(ctx context.Context, id uint64) (*model.Raid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).RaidForUpdate(ctx, id)
}

func (s *memStore) RaidTroops(ctx context.Context, raidID uint64) ([]model.RaidTroop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).RaidTroops(ctx, raidID)
}

func (s *memStore) DefenderTroops(ctx context.Context, raidID uint64) ([]model.DefenderTroop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DefenderTroop(nil), s.defTroops[raidID]...), nil
}

func (s *memStore) City(ctx context.Context, id uint64) (*model.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).City(ctx, id)
}

func (s *memStore) CityTroops(ctx context.Context, cityID uint64) ([]model.CityTroop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).CityTroops(ctx, cityID)
}

func (s *memStore) ListRaids(ctx context.Context, f ListFilter) ([]model.Raid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Raid
	for _, r := range s.raids {
		if f.AttackerCityID != 0 && r.AttackerCityID != f.AttackerCityID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.OwnerID != 0 {
			c, ok := s.cities[r.AttackerCityID]
			if !ok || c.OwnerID != f.OwnerID {
				continue
			}
		}
		out = append(out, *r)
	}
	rank := map[model.RaidStatus]int{
		model.RaidEnroute:   0,
		model.RaidReturning: 1,
		model.RaidResolved:  2,
	}
	sort.Slice(out, func(i, j int) bool {
		if rank[out[i].Status] != rank[out[j].Status] {
			return rank[out[i].Status] < rank[out[j].Status]
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) TroopTypesByID(ctx context.Context, ids []uint64) (map[uint64]model.TroopType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).TroopTypesByID(ctx, ids)
}

func (s *memStore) DueArrivals(ctx context.Context, now time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, r := range s.raids {
		if r.Status == model.RaidEnroute && !now.Before(r.ArrivesAt) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) DueReturns(ctx context.Context, now time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, r := range s.raids {
		if r.Status == model.RaidReturning && !now.Before(r.ReturnsAt) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// memTx mutates the store directly; WithTx's snapshot handles rollback.
type memTx struct {
	s *memStore
}

func (t *memTx) InsertRaid(ctx context.Context, r *model.Raid) error {
	t.s.nextRaidID++
	r.ID = t.s.nextRaidID
	cp := *r
	t.s.raids[r.ID] = &cp
	return nil
}

func (t *memTx) RaidForUpdate(ctx context.Context, id uint64) (*model.Raid, error) {
	r, ok := t.s.raids[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	if r.ResolvedAt != nil {
		rt := *r.ResolvedAt
		cp.ResolvedAt = &rt
	}
	return &cp, nil
}

func (t *memTx) UpdateRaid(ctx context.Context, r *model.Raid) error {
	if _, ok := t.s.raids[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	t.s.raids[r.ID] = &cp
	return nil
}

func (t *memTx) InsertRaidTroops(ctx context.Context, lines []model.RaidTroop) error {
	for _, l := range lines {
		t.s.raidTroops[l.RaidID] = append(t.s.raidTroops[l.RaidID], l)
	}
	return nil
}

func (t *memTx) RaidTroops(ctx context.Context, raidID uint64) ([]model.RaidTroop, error) {
	return append([]model.RaidTroop(nil), t.s.raidTroops[raidID]...), nil
}

func (t *memTx) SetRaidTroopLosses(ctx context.Context, raidID uint64, losses map[uint64]int64) error {
	lines := t.s.raidTroops[raidID]
	for i := range lines {
		if lost, ok := losses[lines[i].TroopTypeID]; ok {
			lines[i].CountLost = lost
		}
	}
	return nil
}

func (t *memTx) InsertDefenderTroops(ctx context.Context, rows []model.DefenderTroop) error {
	for _, r := range rows {
		t.s.defTroops[r.RaidID] = append(t.s.defTroops[r.RaidID], r)
	}
	return nil
}

func (t *memTx) City(ctx context.Context, id uint64) (*model.City, error) {
	c, ok := t.s.cities[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *memTx) CityForUpdate(ctx context.Context, id uint64) (*model.City, error) {
	return t.City(ctx, id)
}

func (t *memTx) UpdateCityResources(ctx context.Context, c *model.City) error {
	cur, ok := t.s.cities[c.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Stock = c.Stock
	cur.LastTickAt = c.LastTickAt
	return nil
}

func (t *memTx) CityTroops(ctx context.Context, cityID uint64) ([]model.CityTroop, error) {
	g := t.s.cityTroops[cityID]
	out := make([]model.CityTroop, 0, len(g))
	for typeID, count := range g {
		out = append(out, model.CityTroop{CityID: cityID, TroopTypeID: typeID, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TroopTypeID < out[j].TroopTypeID })
	return out, nil
}

func (t *memTx) AdjustCityTroops(ctx context.Context, cityID uint64, deltas map[uint64]int64) error {
	g := t.s.cityTroops[cityID]
	if g == nil {
		g = make(map[uint64]int64)
		t.s.cityTroops[cityID] = g
	}
	for typeID, d := range deltas {
		v := g[typeID] + d
		if v < 0 {
			v = 0
		}
		g[typeID] = v
	}
	return nil
}

func (t *memTx) ActiveRaidCount(ctx context.Context, attackerCityID uint64) (int, error) {
	n := 0
	for _, r := range t.s.raids {
		if r.AttackerCityID == attackerCityID && r.Status != model.RaidResolved {
			n++
		}
	}
	return n, nil
}

func (t *memTx) TroopTypesByCode(ctx context.Context, codes []string) (map[string]model.TroopType, error) {
	out := make(map[string]model.TroopType, len(codes))
	for _, c := range codes {
		if tt, ok := t.s.typesByCode[c]; ok {
			out[c] = tt
		}
	}
	return out, nil
}

func (t *memTx) TroopTypesByID(ctx context.Context, ids []uint64) (map[uint64]model.TroopType, error) {
	out := make(map[uint64]model.TroopType, len(ids))
	for _, id := range ids {
		if tt, ok := t.s.types[id]; ok {
			out[id] = tt
		}
	}
	return out, nil
}

// fakeClock is a settable Clock for tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memAuth resolves ownership against the in-memory city table.
type memAuth struct {
	s *memStore
}

func (a memAuth) IsOwnerOrAdmin(ctx context.Context, actor Actor, cityID uint64) (bool, error) {
	if actor.Admin {
		return true, nil
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	c, ok := a.s.cities[cityID]
	if !ok {
		return false, nil
	}
	return c.OwnerID == actor.UserID, nil
}

// recordingMailer counts report deliveries per user and published events.
type recordingMailer struct {
	mu        sync.Mutex
	delivered map[uint64][]RaidSummary
	unread    map[uint64]int
	published []RaidSummary
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		delivered: make(map[uint64][]RaidSummary),
		unread:    make(map[uint64]int),
	}
}

func (m *recordingMailer) PublishResolved(ctx context.Context, sum RaidSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, sum)
	return nil
}

func (m *recordingMailer) DeliverRaidReport(ctx context.Context, userID uint64, sum RaidSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered[userID] = append(m.delivered[userID], sum)
	return nil
}

func (m *recordingMailer) IncrementUnread(ctx context.Context, userID uint64, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread[userID]++
	return nil
}

func (m *recordingMailer) deliveries(userID uint64) []RaidSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RaidSummary(nil), m.delivered[userID]...)
}
