package repository

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/okian/calorank/internal/domain/model"
)

// Treap-based, in-memory ScoreBoard.
//
// Ordering: score DESC, then userID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Every node tracks its subtree size, which makes
// positional lookups O(log n) expected.
//
// Only positive totals are ranked. Negative totals stay in the tree so that
// deltas for one user commute; they sort after every positive total and are
// hidden from queries. A total of exactly zero removes the node.

type node struct {
	id    string
	score int64
	prio  uint64
	left  *node
	right *node
	size  int64
}

func nsize(n *node) int64 {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore int64, aID string, bScore int64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int64, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int64) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		// Rotate the higher-priority child up until n becomes a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// position returns the zero-based rank of (id, score), or -1 when absent.
func position(n *node, id string, score int64) int64 {
	var pos int64
	for n != nil {
		if n.id == id && n.score == score {
			return pos + nsize(n.left)
		}
		if less(score, id, n.score, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// collectRange appends the nodes at positions lo..hi. offset is the
// position of the leftmost node of n's subtree. Subtrees entirely outside
// the window are skipped, so the cost is O(log n + k).
func collectRange(n *node, lo, hi, offset int64, out *[]model.Entry) {
	if n == nil {
		return
	}
	self := offset + nsize(n.left)
	if lo < self {
		collectRange(n.left, lo, hi, offset, out)
	}
	if lo <= self && self <= hi {
		*out = append(*out, model.Entry{Rank: int(self) + 1, UserID: n.id, Calories: n.score})
	}
	if hi > self {
		collectRange(n.right, lo, hi, self+1, out)
	}
}

// TreapStore is an in-memory ScoreBoard.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byID   map[string]int64
	ranked int64 // users with a positive total
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore() *TreapStore {
	return &TreapStore{byID: make(map[string]int64)}
}

// IncrBy implements ScoreBoard.IncrBy in O(log n) expected time.
func (s *TreapStore) IncrBy(_ context.Context, userID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[userID]
	if ok {
		s.root = deleteNode(s.root, userID, old)
		if old > 0 {
			s.ranked--
		}
	}
	score := old + delta
	if score == 0 {
		delete(s.byID, userID)
		return 0, nil
	}
	s.byID[userID] = score
	s.root = insert(s.root, userID, score, rand.Uint64())
	if score > 0 {
		s.ranked++
	}
	return score, nil
}

// Score implements ScoreBoard.Score.
func (s *TreapStore) Score(_ context.Context, userID string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score := s.byID[userID]
	if score <= 0 {
		return 0, false, nil
	}
	return score, true, nil
}

// Rank implements ScoreBoard.Rank in O(log n) expected time.
func (s *TreapStore) Rank(_ context.Context, userID string) (model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score := s.byID[userID]
	if score <= 0 {
		return model.Entry{}, ErrNotFound
	}
	pos := position(s.root, userID, score)
	if pos < 0 {
		return model.Entry{}, ErrNotFound
	}
	return model.Entry{Rank: int(pos) + 1, UserID: userID, Calories: score}, nil
}

// RangeByRank implements ScoreBoard.RangeByRank.
func (s *TreapStore) RangeByRank(_ context.Context, start, stop int64) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if start < 0 {
		start = 0
	}
	if last := s.ranked - 1; stop > last {
		stop = last
	}
	if start > stop {
		return []model.Entry{}, nil
	}
	out := make([]model.Entry, 0, stop-start+1)
	collectRange(s.root, start, stop, 0, &out)
	return out, nil
}

// Count implements ScoreBoard.Count.
func (s *TreapStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranked, nil
}
