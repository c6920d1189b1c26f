// Command shmem-demo runs several agents against one shared-memory arena.
//
// Each agent is a goroutine holding its own wrappers (arena, range, counter)
// reconstructed from the arena's transferable descriptor, the way separate
// threads would attach to the same physical memory. All agents wait on a
// shared start signal, then hammer one locked counter; the final value
// proves no update was lost.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hcz/wasm-shmem/lock"
	"github.com/hcz/wasm-shmem/memory"
	"github.com/hcz/wasm-shmem/object"
)

type progressMsg struct {
	agent int
	done  int
	total int
}

func main() {
	var (
		agents    = flag.Int("agents", 4, "Number of concurrent agents")
		rounds    = flag.Int("rounds", 2000, "Locked increments per agent")
		arenaSize = flag.Uint("arena", 1<<20, "Arena size in bytes")
		plain     = flag.Bool("plain", false, "Disable the TUI even on a terminal")
		verbose   = flag.Bool("v", false, "Enable allocation diagnostics")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		memory.SetLogger(logger)
	}

	interactive := !*plain && term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(*agents, *rounds, uint32(*arenaSize), interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(agents, rounds int, arenaSize uint32, interactive bool) error {
	arena, err := memory.NewHost(arenaSize)
	if err != nil {
		return err
	}

	counter, err := object.NewCounter(arena)
	if err != nil {
		return err
	}

	// One shared start signal so every agent begins at the same instant.
	startCell, err := arena.Alloc(lock.CellAlign, lock.CellSize)
	if err != nil {
		return err
	}
	start := lock.NewSignal(startCell, 0)
	startLoc := startCell.Location()
	counterLoc := counter.Location()

	updates := make(chan progressMsg, agents*8)
	var wg sync.WaitGroup
	for a := 0; a < agents; a++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := runAgent(id, arena.Transferable(), startLoc, counterLoc, rounds, updates); err != nil {
				fmt.Fprintf(os.Stderr, "agent %d: %v\n", id, err)
			}
		}(a)
	}

	go func() {
		wg.Wait()
		close(updates)
	}()

	start.Resolve()

	if interactive {
		if err := runTUI(agents, rounds, updates); err != nil {
			return err
		}
	} else {
		runPlain(updates)
	}

	final := counter.Value()
	want := uint32(agents * rounds)
	fmt.Printf("final counter: %d (expected %d)\n", final, want)
	if final != want {
		return fmt.Errorf("lost updates: %d != %d", final, want)
	}
	return counter.Free()
}

// runAgent reconstructs every wrapper from the transferable descriptor, as
// an independent thread of execution would.
func runAgent(id int, desc memory.Transferable, startLoc, counterLoc memory.MemoryLocation, rounds int, updates chan<- progressMsg) error {
	arena, err := memory.NewFromTransferable(desc)
	if err != nil {
		return err
	}

	startRange, err := memory.Resolve(arena, startLoc)
	if err != nil {
		return err
	}
	lock.AttachSignal(startRange, 0).Wait()

	rng, err := memory.Resolve(arena, counterLoc)
	if err != nil {
		return err
	}
	counter, err := object.AttachCounter(rng)
	if err != nil {
		return err
	}

	step := rounds / 50
	if step == 0 {
		step = 1
	}
	for i := 1; i <= rounds; i++ {
		counter.Increment()
		if i%step == 0 || i == rounds {
			updates <- progressMsg{agent: id, done: i, total: rounds}
		}
	}
	return nil
}

func runPlain(updates <-chan progressMsg) {
	for range updates {
		// Progress is uninteresting without a terminal; drain and let the
		// final summary speak.
	}
}
