package toast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHistory_Evicts(t *testing.T) {
	h := NewHistory(2)
	h.Show(New("one", IconBell, "test", DefaultDuration))
	h.Show(New("two", IconBell, "test", DefaultDuration))
	h.Show(New("three", IconBell, "test", DefaultDuration))

	items := h.List()
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Message)
	assert.Equal(t, "three", items[1].Message)
}

func TestMulti_Order(t *testing.T) {
	var got []string
	m := Multi{
		NotifierFunc(func(t Toast) { got = append(got, "a:"+t.Message) }),
		nil,
		NewLogNotifier(zap.NewNop().Sugar()),
		NotifierFunc(func(t Toast) { got = append(got, "b:"+t.Message) }),
	}
	m.Show(New("hi", IconMemo, "test", DefaultDuration))
	assert.Equal(t, []string{"a:hi", "b:hi"}, got)
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New("x", IconRefresh, "test", DefaultDuration)
	b := New("x", IconRefresh, "test", DefaultDuration)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 5000, int(a.Duration.Milliseconds()))
}
