package store

import (
	"sort"

	"github.com/codevcn/thunderchat-client/internal/models"
)

// Store is the authoritative in-memory ordered message collection for
// one open conversation. Messages are unique by id and held in
// ascending id order, which coincides with send order.
//
// Store is not safe for concurrent use; the window engine serializes
// all access behind its own lock.
type Store struct {
	byID map[int64]models.Message
	ids  []int64 // ascending
}

// New creates an empty store.
func New() *Store {
	return &Store{byID: make(map[int64]models.Message)}
}

// MergeResult describes the outcome of a merge.
type MergeResult struct {
	Added int
	// Gaps is the full set of missing id ranges inside the held span
	// after the merge. Recomputed on every merge, never batched.
	Gaps []Range
}

// Merge upserts incoming messages by id. A message whose id is already
// held only overwrites the mutable fields (status, deletion flags); id,
// author, creation time and type never change. Status moves forward
// only, sent -> seen.
func (s *Store) Merge(incoming []models.Message) MergeResult {
	var res MergeResult
	for _, msg := range incoming {
		existing, ok := s.byID[msg.ID]
		if !ok {
			s.byID[msg.ID] = msg
			s.insertID(msg.ID)
			res.Added++
			continue
		}

		existing.IsDeleted = msg.IsDeleted
		existing.IsViolated = msg.IsViolated
		if existing.Status == models.StatusSent && msg.Status == models.StatusSeen {
			existing.Status = models.StatusSeen
		}
		if msg.IsContextMessage {
			existing.IsContextMessage = true
		}
		s.byID[msg.ID] = existing
	}

	res.Gaps = FindMissingRanges(s.ids)
	return res
}

// Get returns the message with the given id.
func (s *Store) Get(id int64) (models.Message, bool) {
	msg, ok := s.byID[id]
	return msg, ok
}

// Range returns held messages with fromID <= id <= toID, ascending.
func (s *Store) Range(fromID, toID int64) []models.Message {
	lo := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= fromID })
	var out []models.Message
	for i := lo; i < len(s.ids) && s.ids[i] <= toID; i++ {
		out = append(out, s.byID[s.ids[i]])
	}
	return out
}

// Tail returns the newest held message.
func (s *Store) Tail() (models.Message, bool) {
	if len(s.ids) == 0 {
		return models.Message{}, false
	}
	return s.byID[s.ids[len(s.ids)-1]], true
}

// Head returns the oldest held message.
func (s *Store) Head() (models.Message, bool) {
	if len(s.ids) == 0 {
		return models.Message{}, false
	}
	return s.byID[s.ids[0]], true
}

// All returns every held message in ascending id order.
func (s *Store) All() []models.Message {
	out := make([]models.Message, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns the held ids in ascending order. The slice is shared;
// callers must not mutate it.
func (s *Store) IDs() []int64 {
	return s.ids
}

// Len reports the number of held messages.
func (s *Store) Len() int {
	return len(s.ids)
}

// MarkSeen advances the status of the message to seen, if held.
func (s *Store) MarkSeen(id int64) bool {
	msg, ok := s.byID[id]
	if !ok || msg.Status == models.StatusSeen {
		return false
	}
	msg.Status = models.StatusSeen
	s.byID[id] = msg
	return true
}

// ClearContextFlags drops the context marker from every held message.
// Called when the window re-joins the live tail.
func (s *Store) ClearContextFlags() {
	for id, msg := range s.byID {
		if msg.IsContextMessage {
			msg.IsContextMessage = false
			s.byID[id] = msg
		}
	}
}

// RemoveAll empties the store.
func (s *Store) RemoveAll() {
	s.byID = make(map[int64]models.Message)
	s.ids = nil
}

func (s *Store) insertID(id int64) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
}
