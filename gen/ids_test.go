package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocatorBases(t *testing.T) {
	a := NewAllocator()

	assert.Equal(t, 1, a.Next(KindContent))
	assert.Equal(t, UserIDBase, a.Next(KindUser))
	assert.Equal(t, 1, a.Next(KindQuery))
}

func TestAllocatorMonotonic(t *testing.T) {
	a := NewAllocator()

	for want := 1; want <= 5; want++ {
		assert.Equal(t, want, a.Next(KindContent))
	}
	assert.Equal(t, 6, a.Peek(KindContent))

	// kinds advance independently
	assert.Equal(t, 1, a.Next(KindQuery))
}

func TestAllocatorResume(t *testing.T) {
	a := NewAllocator()

	a.Resume(KindContent, 17)
	assert.Equal(t, 18, a.Next(KindContent))

	// Resume never moves a counter backwards
	a.Resume(KindContent, 3)
	assert.Equal(t, 19, a.Next(KindContent))
}

func TestAllocatorSetBase(t *testing.T) {
	a := NewAllocator()

	a.SetBase(KindUser, 5000)
	assert.Equal(t, 5000, a.Next(KindUser))
	assert.Equal(t, 5001, a.Next(KindUser))
}
