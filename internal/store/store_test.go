package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codevcn/thunderchat-client/internal/models"
)

func msg(id int64) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: 1,
		AuthorID:       2,
		Type:           models.TypeText,
		Content:        "hello",
		Status:         models.StatusSent,
		CreatedAt:      time.Unix(1700000000+id, 0),
	}
}

func TestMergeKeepsIDsUniqueAndOrdered(t *testing.T) {
	s := New()
	s.Merge([]models.Message{msg(3), msg(1)})
	s.Merge([]models.Message{msg(2), msg(1), msg(3)})

	require.Equal(t, 3, s.Len())
	assert.Equal(t, []int64{1, 2, 3}, s.IDs())

	all := s.All()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
		assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt))
	}
}

func TestMergeIsIdempotentOnMutableFields(t *testing.T) {
	s := New()
	s.Merge([]models.Message{msg(7)})

	update := msg(7)
	update.Status = models.StatusSeen
	update.IsDeleted = true
	s.Merge([]models.Message{update})
	s.Merge([]models.Message{update})

	require.Equal(t, 1, s.Len())
	got, ok := s.Get(7)
	require.True(t, ok)
	assert.Equal(t, models.StatusSeen, got.Status)
	assert.True(t, got.IsDeleted)
}

func TestMergeNeverChangesImmutableFields(t *testing.T) {
	s := New()
	original := msg(7)
	s.Merge([]models.Message{original})

	tampered := msg(7)
	tampered.AuthorID = 99
	tampered.Type = models.TypeImage
	tampered.CreatedAt = time.Unix(0, 0)
	s.Merge([]models.Message{tampered})

	got, _ := s.Get(7)
	assert.Equal(t, original.AuthorID, got.AuthorID)
	assert.Equal(t, original.Type, got.Type)
	assert.Equal(t, original.CreatedAt, got.CreatedAt)
}

func TestMergeStatusNeverReverses(t *testing.T) {
	s := New()
	seen := msg(5)
	seen.Status = models.StatusSeen
	s.Merge([]models.Message{seen})

	stale := msg(5)
	stale.Status = models.StatusSent
	s.Merge([]models.Message{stale})

	got, _ := s.Get(5)
	assert.Equal(t, models.StatusSeen, got.Status)
}

func TestMergeReportsGaps(t *testing.T) {
	s := New()
	res := s.Merge([]models.Message{msg(1), msg(2)})
	assert.Empty(t, res.Gaps)

	res = s.Merge([]models.Message{msg(6)})
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, Range{From: 3, To: 5}, res.Gaps[0])

	s.Merge([]models.Message{msg(3), msg(4)})
	res = s.Merge([]models.Message{msg(5)})
	assert.Empty(t, res.Gaps)
}

func TestRangeHeadTail(t *testing.T) {
	s := New()
	s.Merge([]models.Message{msg(10), msg(20), msg(30), msg(40)})

	got := s.Range(15, 35)
	require.Len(t, got, 2)
	assert.Equal(t, int64(20), got[0].ID)
	assert.Equal(t, int64(30), got[1].ID)

	head, ok := s.Head()
	require.True(t, ok)
	assert.Equal(t, int64(10), head.ID)

	tail, ok := s.Tail()
	require.True(t, ok)
	assert.Equal(t, int64(40), tail.ID)
}

func TestMarkSeen(t *testing.T) {
	s := New()
	s.Merge([]models.Message{msg(1)})

	assert.True(t, s.MarkSeen(1))
	assert.False(t, s.MarkSeen(1))
	assert.False(t, s.MarkSeen(404))

	got, _ := s.Get(1)
	assert.Equal(t, models.StatusSeen, got.Status)
}

func TestClearContextFlags(t *testing.T) {
	s := New()
	ctxMsg := msg(1)
	ctxMsg.IsContextMessage = true
	s.Merge([]models.Message{ctxMsg, msg(2)})

	s.ClearContextFlags()
	for _, m := range s.All() {
		assert.False(t, m.IsContextMessage)
	}
}

func TestRemoveAll(t *testing.T) {
	s := New()
	s.Merge([]models.Message{msg(1), msg(2)})
	s.RemoveAll()

	assert.Equal(t, 0, s.Len())
	_, ok := s.Tail()
	assert.False(t, ok)
}
