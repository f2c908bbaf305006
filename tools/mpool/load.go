package main

import "flag"
import "fmt"
import "log"
import "math/rand"
import "unsafe"

import humanize "github.com/dustin/go-humanize"
import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/gopool/mpool"

var loadopts struct {
	n        int
	size     int64
	nextsize int64
	maxsize  int64
	seed     int
	ordered  bool
	verbose  bool
}

func parseLoadopts(args []string) {
	f := flag.NewFlagSet("load", flag.ExitOnError)

	f.IntVar(&loadopts.n, "n", 1000000,
		"number of operations to run against the pool")
	f.Int64Var(&loadopts.size, "size", 96,
		"chunk size served by the pool")
	f.Int64Var(&loadopts.nextsize, "nextsize", 32,
		"chunks requested on the first grow")
	f.Int64Var(&loadopts.maxsize, "maxsize", 0,
		"cap on the grow size, in chunks")
	f.IntVar(&loadopts.seed, "seed", 1,
		"random seed")
	f.BoolVar(&loadopts.ordered, "ordered", true,
		"use the order preserving allocation path")
	f.BoolVar(&loadopts.verbose, "v", false,
		"log pool components")
	f.Parse(args)

	if loadopts.verbose {
		mpool.LogComponents("all")
	}
	fmt.Printf("seed: %v\n", loadopts.seed)
}

func doLoad(args []string) {
	parseLoadopts(args)

	setts := s.Settings{
		"nextsize": loadopts.nextsize, "maxsize": loadopts.maxsize,
	}
	pool := mpool.NewPool(loadopts.size, setts)
	rnd := rand.New(rand.NewSource(int64(loadopts.seed)))

	live, allocs, frees := []unsafe.Pointer{}, 0, 0
	for i := 0; i < loadopts.n; i++ {
		if len(live) == 0 || rnd.Intn(100) < 55 {
			ptr := allocchunk(pool)
			if ptr == nil {
				log.Fatalf("allocation failed after %v operations", i)
			}
			live = append(live, ptr)
			allocs++
		} else {
			j := rnd.Intn(len(live))
			freechunk(pool, live[j])
			live = append(live[:j], live[j+1:]...)
			frees++
		}
	}
	for _, ptr := range live {
		freechunk(pool, ptr)
	}

	_, heap, alloc, overhead := pool.Info()
	fmt.Printf("allocs: %v frees: %v\n", allocs, frees)
	fmt.Printf("heap: %v alloc: %v overhead: %v\n",
		humanize.Bytes(uint64(heap)), humanize.Bytes(uint64(alloc)),
		humanize.Bytes(uint64(overhead)))

	if loadopts.ordered {
		if pool.Releasememory() == false {
			log.Fatalf("expected all regions to be releasable")
		}
		if _, heap, _, _ := pool.Info(); heap != 0 {
			log.Fatalf("heap %v after full release", heap)
		}
		fmt.Println("all regions released")
	} else {
		pool.Purgememory()
		fmt.Println("all regions purged")
	}
}

func allocchunk(pool *mpool.Pool) unsafe.Pointer {
	if loadopts.ordered {
		return pool.Orderedmalloc()
	}
	return pool.Malloc()
}

func freechunk(pool *mpool.Pool, ptr unsafe.Pointer) {
	if loadopts.ordered {
		pool.Orderedfree(ptr)
	} else {
		pool.Free(ptr)
	}
}
