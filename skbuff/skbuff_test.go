package skbuff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/skbuff"
)

var _ functional.Packet = (*skbuff.Buff)(nil)

func TestNew(t *testing.T) {
	b := skbuff.New([]byte{1, 2, 3})

	assert.Equal(t, []byte{1, 2, 3}, b.Data)
	assert.Equal(t, skbuff.State{}, b.State())
}

func TestFromState(t *testing.T) {
	s := skbuff.State{Class: 1 << 4, Groups: 0x6, ToKernel: true}
	b := skbuff.FromState(nil, s)

	assert.Equal(t, s, b.State())
	assert.Equal(t, "skb{len=0 class=0x10 groups=0x6 to_kernel=true}", b.String())
}

func TestMutators(t *testing.T) {
	b := skbuff.New(nil)

	b.SetClass(1 << 7)
	b.SetGroups(1 << 2)
	b.MarkToKernel()

	assert.Equal(t, uint64(1<<7), b.Class())
	assert.Equal(t, uint64(1<<2), b.Groups())
	assert.True(t, b.ToKernel())
}
