package mpool

import "testing"
import "unsafe"

import "github.com/stretchr/testify/assert"

import "github.com/bnclabs/gopool/api"
import "github.com/bnclabs/gopool/lib"

func TestPoolallocator(t *testing.T) {
	defer Purgeregistry()

	pa := NewPoolallocator("testpalloc", 24, testsettings(8, 0))
	ptr := pa.Allocate(10)
	assert.NotNil(t, ptr)

	// the run is writable over its full requested extent.
	lib.Memset(ptr, 0xab, 10*24)
	bytes := unsafe.Slice((*byte)(ptr), 10*24)
	assert.Equal(t, byte(0xab), bytes[0])
	assert.Equal(t, byte(0xab), bytes[10*24-1])

	pa.Deallocate(ptr, 10)
	assert.True(t, Getsingleton("testpalloc", 24, nil).Releasememory())
}

func TestPoolallocatorSharing(t *testing.T) {
	defer Purgeregistry()

	// façades with the same tag and size share one pool.
	pa1 := NewPoolallocator("testshare", 16, testsettings(8, 0))
	pa2 := NewPoolallocator("testshare", 16, nil)
	ptr := pa1.Allocate(1)
	assert.True(t, Getsingleton("testshare", 16, nil).Isfrom(ptr))
	pa2.Deallocate(ptr, 1)
}

func TestFastpoolallocator(t *testing.T) {
	defer Purgeregistry()

	pa := NewFastpoolallocator("testfast", 56, testsettings(8, 0))
	single := pa.Allocate(1)
	assert.NotNil(t, single)
	run := pa.Allocate(6)
	assert.NotNil(t, run)
	pa.Deallocate(run, 6)
	pa.Deallocate(single, 1)
	assert.True(t, Getsingleton("testfast", 56, nil).Purgememory())
}

func TestAllocatorOOM(t *testing.T) {
	defer Purgeregistry()

	setts := testsettings(8, 0).Mixin(map[string]interface{}{"capacity": int64(64)})
	pa := NewPoolallocator("testoom", 8, setts)
	assert.PanicsWithValue(t, api.ErrorOutofMemory, func() {
		pa.Allocate(1000)
	})
}

func TestAllocatorBadsize(t *testing.T) {
	assert.Panics(t, func() { NewPoolallocator("testbad", 0, nil) })
	assert.Panics(t, func() { NewFastpoolallocator("testbad", 0, nil) })
}
