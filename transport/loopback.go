package transport

import (
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/dtile-project/dtile/internal/cmn"
)

// frame is one transported message: raw (possibly lz4-compressed)
// bytes plus the sender's rank so a mailbox can answer "receive from
// src" without cross-talk between concurrent senders.
type frame struct {
	from       int
	payload    []byte
	compressed bool
}

// mailbox is an unbounded, condition-variable-guarded queue of frames
// addressed to one (groupID, destRank) pair.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []frame
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *mailbox) push(f frame) {
	m.mu.Lock()
	m.frames = append(m.frames, f)
	m.cond.Signal()
	m.mu.Unlock()
}

func (m *mailbox) popFrom(from int) frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		for i, f := range m.frames {
			if f.from == from {
				m.frames = append(m.frames[:i], m.frames[i+1:]...)
				return f
			}
		}
		m.cond.Wait()
	}
}

// World is the shared substrate every rank's Loopback communicator talks
// through: a process-local simulation of an MPI world, addressed by
// (groupID, destRank) mailboxes. The empty groupID is the world-level
// point-to-point namespace (spec.md §4.5.2).
type World struct {
	n int

	mu        sync.Mutex
	boxes     map[string]*mailbox
	groupIDs  map[string]string
	groupRefs map[string]int
}

// NewWorld creates a Loopback simulation of n ranks.
func NewWorld(n int) *World {
	return &World{
		n:         n,
		boxes:     make(map[string]*mailbox),
		groupIDs:  make(map[string]string),
		groupRefs: make(map[string]int),
	}
}

// groupID returns the shared sub-communicator id for members, generating
// and caching one uuid on the first caller so every rank's independent
// NewGroup call agrees on the same mailbox namespace (spec.md §4.5.1 step
// 5: "every rank in ranks must call NewGroup with the same ranks").
// Caching by member set means two logically distinct broadcasts over the
// exact same ranks must not be in flight at once; callers serialize
// their own tile_bcast calls under transportMu, which is sufficient for
// every caller in this module.
func (w *World) groupID(members []int) string {
	key := groupKey(members)
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.groupIDs[key]; ok {
		return id
	}
	id := uuid.NewString()
	w.groupIDs[key] = id
	return id
}

func groupKey(members []int) string {
	buf := make([]byte, 0, len(members)*4)
	for i, r := range members {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(r), 10)
	}
	return string(buf)
}

func (w *World) box(groupID string, dest int) *mailbox {
	key := groupID + "#" + strconv.Itoa(dest)
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.boxes[key]
	if !ok {
		b = newMailbox()
		w.boxes[key] = b
	}
	return b
}

// dropGroup runs once per member's Close call (TileBcast defers exactly
// one Close per broadcast-set member), so it refcounts down from
// len(members) and only tears down the group's mailboxes once every
// member has called in. Deleting a mailbox as soon as the *first* member
// closes (the root, typically, which returns from Bcast immediately
// after pushing frames) would race a slow receiver that has not yet
// called box() for its first popFrom: it would allocate a fresh empty
// mailbox and block on it forever. Waiting for every member guarantees
// each receiver has already drained its frame before any box is removed,
// since a member only reaches Close after its own Bcast call returns.
func (w *World) dropGroup(groupID string, members []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.groupRefs[groupID]; !ok {
		w.groupRefs[groupID] = len(members)
	}
	w.groupRefs[groupID]--
	if w.groupRefs[groupID] > 0 {
		return
	}
	delete(w.groupRefs, groupID)
	for _, r := range members {
		delete(w.boxes, groupID+"#"+strconv.Itoa(r))
	}
}

// Rank returns the Loopback communicator for rank r in w.
func (w *World) Rank(r int) *Loopback {
	return &Loopback{world: w, rank: r}
}

// Loopback is the reference Communicator implementation: one rank's
// handle onto an in-process World. Send and Recv serialize under mu;
// NewGroup does not take it, and a Group's Bcast serializes under that
// group's own lock rather than the rank's.
type Loopback struct {
	world *World
	rank  int
	mu    sync.Mutex
}

func (c *Loopback) Rank() int { return c.rank }
func (c *Loopback) Size() int { return c.world.n }

func (c *Loopback) Send(data []byte, dest int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, compressed, err := maybeCompress(data)
	if err != nil {
		return cmn.TransferFailed("Loopback.Send", err, "compress payload for rank %d", dest)
	}
	cp := append([]byte(nil), payload...)
	c.world.box("", dest).push(frame{from: c.rank, payload: cp, compressed: compressed})
	return nil
}

func (c *Loopback) Recv(src int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.world.box("", c.rank).popFrom(src)
	return decodeFrame(f)
}

func decodeFrame(f frame) ([]byte, error) {
	if !f.compressed {
		return f.payload, nil
	}
	out, err := decompress(f.payload)
	if err != nil {
		return nil, cmn.TransferFailed("transport.decodeFrame", err, "lz4 decompress")
	}
	return out, nil
}

// NewGroup builds a sub-communicator over ranks, ascending-sorted.
func (c *Loopback) NewGroup(ranks []int) (Group, error) {
	if len(ranks) == 0 {
		return nil, cmn.InvalidArgument("Loopback.NewGroup", "empty member set")
	}
	members := append([]int(nil), ranks...)
	sort.Ints(members)
	local := -1
	for i, r := range members {
		if r == c.rank {
			local = i
		}
	}
	if local < 0 {
		return nil, cmn.InvalidArgument("Loopback.NewGroup", "rank %d not a member", c.rank)
	}
	return &loopbackGroup{
		world:   c.world,
		id:      c.world.groupID(members),
		members: members,
		local:   local,
	}, nil
}

type loopbackGroup struct {
	world   *World
	id      string
	members []int
	local   int
	mu      sync.Mutex
}

func (g *loopbackGroup) Rank() int { return g.local }
func (g *loopbackGroup) Size() int { return len(g.members) }

func (g *loopbackGroup) Bcast(data []byte, rootRank int) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rootRank < 0 || rootRank >= len(g.members) {
		return nil, cmn.InvalidArgument("loopbackGroup.Bcast", "root %d out of range [0,%d)", rootRank, len(g.members))
	}
	rootGlobal := g.members[rootRank]
	myGlobal := g.members[g.local]

	if g.local == rootRank {
		payload, compressed, err := maybeCompress(data)
		if err != nil {
			return nil, cmn.TransferFailed("loopbackGroup.Bcast", err, "compress broadcast payload")
		}
		for i, r := range g.members {
			if i == rootRank {
				continue
			}
			cp := append([]byte(nil), payload...)
			g.world.box(g.id, r).push(frame{from: rootGlobal, payload: cp, compressed: compressed})
		}
		return data, nil
	}
	f := g.world.box(g.id, myGlobal).popFrom(rootGlobal)
	return decodeFrame(f)
}

func (g *loopbackGroup) Close() {
	g.world.dropGroup(g.id, g.members)
}
