package mpool

import sigar "github.com/cloudfoundry/gosigar"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/gopool/api"

// Defaultsettings for pools in this package. Applications can obtain
// the default set, mutate interesting keys and hand it over to
// NewPool, NewObjpool or Getsingleton.
//
// "nextsize" (int64, default: 32)
//		Number of chunks to request from the user-allocator on the
//		next grow. Doubles after every grow. Shall never be zero.
//
// "maxsize" (int64, default: 0)
//		Cap on "nextsize", expressed in requested-size chunks.
//		Zero means unlimited.
//
// "capacity" (int64, default: free system memory)
//		Cap on total bytes obtained from the user-allocator. A grow
//		that would exceed it fails like an out-of-memory condition.
//		Zero means unlimited.
//
// "allocator" (string, default: "go")
//		User-allocator sourcing raw regions, can be "go" for go-heap
//		regions or "c" for system malloc, the latter only with cgo.
//		The key also accepts an api.UserAllocator value.
//
// "nullmutex" (bool, default: false)
//		Applicable to singleton pools. If true the singleton skips
//		locking, synchronisation becomes caller's responsibility.
func Defaultsettings() s.Settings {
	_, _, free := getsysmem()
	return s.Settings{
		"nextsize":  int64(32),
		"maxsize":   int64(0),
		"capacity":  int64(free),
		"allocator": "go",
		"nullmutex": false,
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}

// set by the cgo build.
var newcallocator func() api.UserAllocator

func newuserallocator(setts s.Settings) api.UserAllocator {
	switch arg := setts["allocator"].(type) {
	case api.UserAllocator:
		return arg
	case string:
		switch arg {
		case "go":
			return NewGoallocator()
		case "c":
			if newcallocator == nil {
				panicerr("allocator %q needs cgo enabled builds", arg)
			}
			return newcallocator()
		}
		panicerr("unknown allocator %q", arg)
	}
	panicerr("invalid allocator setting %v", setts["allocator"])
	return nil
}
