package main

import "fmt"
import "os"
import "runtime"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("please provide a valid command !!")
		os.Exit(1)
	}
	switch os.Args[1] {
	case "load":
		doLoad(os.Args[2:])
	case "monster":
		doMonster(os.Args[2:])
	default:
		fmt.Println("please provide a valid command !!")
		os.Exit(1)
	}
}

func setCPU(n int) {
	fmt.Printf("Setting number of cpus to %v\n", n)
	runtime.GOMAXPROCS(n)
}
