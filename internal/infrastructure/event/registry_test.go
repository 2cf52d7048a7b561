package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_RegisterAndLookup(t *testing.T) {
	r := NewHandlerRegistry()
	typed := &recordingHandler{}
	wildcard := &recordingHandler{}

	r.Register(typed, "A", "B")
	r.Register(typed, "A")
	r.Register(wildcard)

	assert.Equal(t, 2, r.Len())
	handlersA := r.HandlersFor("A")
	assert.Len(t, handlersA, 2)
	assert.Same(t, typed, handlersA[0])
	assert.Same(t, wildcard, handlersA[1])
	assert.Len(t, r.HandlersFor("C"), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	r := NewHandlerRegistry()
	keep := &recordingHandler{}
	drop := &recordingHandler{}
	r.Register(keep, "A")
	r.Register(drop, "A", "B")
	r.Register(drop)

	r.Unregister(drop)

	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.HandlersFor("A"), 1)
	assert.Empty(t, r.HandlersFor("B"))
}

func TestHandlerRegistry_HandlersForReturnsCopy(t *testing.T) {
	r := NewHandlerRegistry()
	r.Register(&recordingHandler{}, "A")

	got := r.HandlersFor("A")
	got[0] = nil

	assert.NotNil(t, r.HandlersFor("A")[0])
}
