package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emission struct {
	value string
	at    time.Time
}

func newRecorder() (chan emission, func(string)) {
	ch := make(chan emission, 16)
	return ch, func(v string) {
		ch <- emission{value: v, at: time.Now()}
	}
}

func expectEmission(t *testing.T, ch chan emission, timeout time.Duration) emission {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(timeout):
		t.Fatalf("no value emitted within %s", timeout)
		return emission{}
	}
}

func expectSilence(t *testing.T, ch chan emission, wait time.Duration) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected emission %q", e.value)
	case <-time.After(wait):
	}
}

func TestRapidChangesEmitOnlyFinalValue(t *testing.T) {
	ch, emit := newRecorder()
	s := New(DefaultQuietPeriod, emit)
	defer s.Stop()

	s.Set("bat")
	time.Sleep(200 * time.Millisecond)
	s.Set("batman")
	lastChange := time.Now()

	e := expectEmission(t, ch, 2*time.Second)
	assert.Equal(t, "batman", e.value)
	assert.GreaterOrEqual(t, e.at.Sub(lastChange), DefaultQuietPeriod)
	assert.Equal(t, "batman", s.Value())

	expectSilence(t, ch, 700*time.Millisecond)
}

func TestManyKeystrokesWithinWindow(t *testing.T) {
	ch, emit := newRecorder()
	s := New(50*time.Millisecond, emit)
	defer s.Stop()

	for _, v := range []string{"d", "du", "dun", "dune"} {
		s.Set(v)
		time.Sleep(10 * time.Millisecond)
	}

	e := expectEmission(t, ch, time.Second)
	assert.Equal(t, "dune", e.value)
	expectSilence(t, ch, 150*time.Millisecond)
}

func TestEmptyValuePropagates(t *testing.T) {
	ch, emit := newRecorder()
	s := New(30*time.Millisecond, emit)
	defer s.Stop()

	s.Set("dune")
	assert.Equal(t, "dune", expectEmission(t, ch, time.Second).value)

	s.Set("")
	e := expectEmission(t, ch, time.Second)
	assert.Equal(t, "", e.value)
	assert.Equal(t, "", s.Value())
}

func TestUnchangedStableValueIsNotReEmitted(t *testing.T) {
	ch, emit := newRecorder()
	s := New(30*time.Millisecond, emit)
	defer s.Stop()

	s.Set("alien")
	s.Set("")
	expectSilence(t, ch, 120*time.Millisecond)

	s.Set("alien")
	assert.Equal(t, "alien", expectEmission(t, ch, time.Second).value)

	s.Set("alien")
	expectSilence(t, ch, 120*time.Millisecond)
}

func TestFlushEmitsImmediately(t *testing.T) {
	ch, emit := newRecorder()
	s := New(time.Hour, emit)
	defer s.Stop()

	s.Set("heat")
	pending, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, "heat", pending)

	assert.True(t, s.Flush())
	assert.Equal(t, "heat", expectEmission(t, ch, 100*time.Millisecond).value)

	_, ok = s.Pending()
	assert.False(t, ok)
	assert.False(t, s.Flush())
}

func TestStopCancelsPendingEmission(t *testing.T) {
	ch, emit := newRecorder()
	s := New(30*time.Millisecond, emit)

	s.Set("up")
	s.Stop()
	expectSilence(t, ch, 120*time.Millisecond)

	s.Set("down")
	expectSilence(t, ch, 120*time.Millisecond)
	assert.Equal(t, "", s.Value())
}

func TestNonPositiveQuietUsesDefault(t *testing.T) {
	s := New(0, nil)
	assert.Equal(t, DefaultQuietPeriod, s.quiet)
}
