package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	var e Emitter[int]
	var order []int

	e.On(func(v int) { order = append(order, v*10+1) })
	e.On(func(v int) { order = append(order, v*10+2) })

	e.Emit(7)
	assert.Equal(t, []int{71, 72}, order)
}

func TestEmitterDuplicateRegistrationIsNoop(t *testing.T) {
	var e Emitter[int]
	calls := 0
	listener := func(int) { calls++ }

	e.On(listener)
	e.On(listener)
	e.Emit(1)

	assert.Equal(t, 1, calls)
}

func TestEmitterOffUnknownCallbackErrors(t *testing.T) {
	var e Emitter[int]
	err := e.Off(func(int) {})
	assert.Error(t, err)
}

func TestEmitterOffRemovesListener(t *testing.T) {
	var e Emitter[string]
	calls := 0
	listener := func(string) { calls++ }

	e.On(listener)
	require_ := assert.New(t)
	require_.NoError(e.Off(listener))

	e.Emit("hi")
	assert.Equal(t, 0, calls)
}
