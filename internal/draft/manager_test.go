package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerPutGet(t *testing.T) {
	m := NewManager()
	id := m.Put(Draft{Name: "四君子汤"})
	require.NotEmpty(t, id)

	d, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "四君子汤", d.Name)
}

func TestManagerGetUnknown(t *testing.T) {
	m := NewManager()
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrSessionGone)
}

func TestManagerUpdate(t *testing.T) {
	m := NewManager()
	id := m.Put(Draft{Name: "old"})

	d, err := m.Update(id, func(d Draft) (Draft, error) {
		return d.WithName("new"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", d.Name)

	stored, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Name)
}

func TestManagerUpdateErrorLeavesDraft(t *testing.T) {
	m := NewManager()
	id := m.Put(Draft{Name: "keep", Herbs: []Herb{{Name: "人参"}}})

	_, err := m.Update(id, func(d Draft) (Draft, error) {
		return d.RemoveHerb(5)
	})
	assert.ErrorIs(t, err, ErrHerbIndex)

	stored, err := m.Get(id)
	require.NoError(t, err)
	assert.Len(t, stored.Herbs, 1)
}

func TestManagerDiscard(t *testing.T) {
	m := NewManager()
	id := m.Put(Draft{Name: "x"})
	m.Discard(id)
	_, err := m.Get(id)
	assert.ErrorIs(t, err, ErrSessionGone)
}
