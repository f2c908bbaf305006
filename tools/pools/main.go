package main

import "flag"
import "fmt"
import "unsafe"

import "github.com/bnclabs/gopool/lib"

var options struct {
	minsize int64
	maxsize int64
}

func argParse() {
	flag.Int64Var(&options.minsize, "minsize", 1,
		"minimum requested chunk size")
	flag.Int64Var(&options.maxsize, "maxsize", 256,
		"maximum requested chunk size")
	flag.Parse()
}

func main() {
	argParse()
	tellutilization()
}

// for each requested size print the effective stride a pool would
// use and the fraction of every chunk the caller actually asked for.
func tellutilization() {
	ptrsize := int64(unsafe.Sizeof(uintptr(0)))
	sizesize := int64(unsafe.Sizeof(int64(0)))
	minalloc := lib.Lcm(ptrsize, sizesize)
	for size := options.minsize; size <= options.maxsize; size++ {
		stride := lib.Lcm(size, minalloc)
		u := float64(size) / float64(stride)
		if stride != size {
			fmt.Printf("size %4v, stride %5v, util %.4f\n", size, stride, u)
		}
	}
	fmt.Printf("sizes that are multiples of %v use their own stride\n", minalloc)
}
