package main

import "encoding/json"
import "flag"
import "fmt"
import "log"
import "os"
import "sort"
import "unsafe"

import parsec "github.com/prataprc/goparsec"
import "github.com/prataprc/monster"
import mcommon "github.com/prataprc/monster/common"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/gopool/mpool"

var monsteropts struct {
	n        int
	ncpu     int
	size     int64
	seed     int
	bagdir   string
	prodfile string
}

func parseMonsteropts(args []string) {
	f := flag.NewFlagSet("monster", flag.ExitOnError)

	f.IntVar(&monsteropts.n, "n", 1000,
		"number of op batches to generate and replay")
	f.IntVar(&monsteropts.ncpu, "ncpu", 1,
		"set number cores to use.")
	f.Int64Var(&monsteropts.size, "size", 64,
		"chunk size served by the pool")
	f.IntVar(&monsteropts.seed, "seed", 1,
		"random seed")
	f.StringVar(&monsteropts.bagdir, "bagdir", "",
		"bag directory for monster sample data.")
	f.StringVar(&monsteropts.prodfile, "prodfile", "",
		"monster production file, e.g. tools/mpool/ops.prod")
	f.Parse(args)

	if monsteropts.prodfile == "" {
		log.Fatalf("please provide production file to monster")
	}

	fmt.Printf("seed: %v\n", monsteropts.seed)
	setCPU(monsteropts.ncpu)
}

// replay monster generated op batches against an ordered pool,
// keeping the books to validate release at the end.
func doMonster(args []string) {
	parseMonsteropts(args)

	opch := make(chan [][]interface{}, 1000)
	go generate(monsteropts.n, monsteropts.prodfile, opch)

	pool := mpool.NewPool(monsteropts.size, s.Settings{
		"nextsize": int64(32), "maxsize": int64(0),
	})
	live, stats := []unsafe.Pointer{}, map[string]int{}

	count := 0
	for cmds := range opch {
		for _, cmd := range cmds {
			name := cmd[0].(string)
			stats[name] = stats[name] + 1
			switch name {
			case "alloc":
				if ptr := pool.Orderedmalloc(); ptr != nil {
					live = append(live, ptr)
				}
			case "allocn":
				n := int64(cmd[1].(float64))
				if ptr := pool.Orderedmallocn(n); ptr != nil {
					pool.Orderedfreen(ptr, n)
				}
			case "free":
				if len(live) > 0 {
					pool.Orderedfree(live[len(live)-1])
					live = live[:len(live)-1]
				}
			case "release":
				for _, ptr := range live {
					pool.Orderedfree(ptr)
				}
				live = live[:0]
				pool.Releasememory()
			}
		}
		count++
		if count >= monsteropts.n {
			break
		}
	}

	for _, ptr := range live {
		pool.Orderedfree(ptr)
	}
	if len(live) > 0 && pool.Releasememory() == false {
		log.Fatalf("expected all regions to be releasable")
	}

	// print statistics
	keys, total := []string{}, 0
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		total += stats[key]
		fmt.Printf("%v : %v\n", key, stats[key])
	}
	fmt.Printf("total : %v\n", total)
}

//--------
// monster
//--------

func generate(repeat int, prodfile string, opch chan<- [][]interface{}) {
	text, err := os.ReadFile(prodfile)
	if err != nil {
		log.Fatal(err)
	}
	root := compile(parsec.NewScanner(text)).(mcommon.Scope)
	seed, bagdir := uint64(monsteropts.seed), monsteropts.bagdir
	scope := monster.BuildContext(root, seed, bagdir, prodfile)
	nterms := scope["_nonterminals"].(mcommon.NTForms)
	for i := 0; i < repeat; i++ {
		scope = scope.RebuildContext()
		val := evaluate("root", scope, nterms["s"])
		var arr [][]interface{}
		if err := json.Unmarshal([]byte(val.(string)), &arr); err != nil {
			log.Fatal(err)
		}
		opch <- arr
	}
}

func compile(s parsec.Scanner) parsec.ParsecNode {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("%v at %v", r, s.GetCursor())
		}
	}()
	root, _ := monster.Y(s)
	return root
}

func evaluate(
	name string, scope mcommon.Scope, forms []*mcommon.Form) interface{} {

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("%v", r)
		}
	}()
	return monster.EvalForms(name, scope, forms)
}
