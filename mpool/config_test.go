package mpool

import "testing"

import s "github.com/bnclabs/gosettings"

func TestDefaultsettings(t *testing.T) {
	setts := Defaultsettings()
	if x := setts.Int64("nextsize"); x != 32 {
		t.Errorf("expected %v, got %v", 32, x)
	} else if x := setts.Int64("maxsize"); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	} else if setts.Bool("nullmutex") != false {
		t.Errorf("expected %v", false)
	} else if x := setts.String("allocator"); x != "go" {
		t.Errorf("expected %v, got %v", "go", x)
	}
	// capacity defaults to whatever the host can spare.
	if x := setts.Int64("capacity"); x < 0 {
		t.Errorf("unexpected capacity %v", x)
	}
}

func TestNewuserallocator(t *testing.T) {
	setts := s.Settings{"allocator": "go"}
	if _, ok := newuserallocator(setts).(*Goallocator); !ok {
		t.Errorf("expected a go allocator")
	}
	ta := newtestuseralloc(0)
	setts = s.Settings{"allocator": ta}
	if x := newuserallocator(setts); x != ta {
		t.Errorf("expected custom allocator passthrough")
	}
	shouldpanic := func(fn func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		fn()
	}
	shouldpanic(func() { newuserallocator(s.Settings{"allocator": "bogus"}) })
	shouldpanic(func() { newuserallocator(s.Settings{"allocator": 42}) })
}

func TestGetsysmem(t *testing.T) {
	total, used, free := getsysmem()
	if total == 0 {
		t.Errorf("expected non-zero total memory")
	}
	_, _ = used, free
}
