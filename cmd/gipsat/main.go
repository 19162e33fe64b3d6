// Command gipsat runs the CDCL solver standalone over a DIMACS CNF file.
// The IC3/PDR model-checking driver is a library (internal/ic3) consumed by
// an AIGER front end that is out of scope here (§1 "Non-goals"); this
// command exercises the same CDCL core in isolation, the way the teacher's
// own command line does (main.go).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rhartert/gipsat/internal/dimacs"
	"github.com/rhartert/gipsat/internal/sat"
)

var flagGzip = flag.Bool(
	"gzip",
	false,
	"the instance file is gzip-compressed",
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

type config struct {
	instanceFile string
	gzip         bool
	memProfile   bool
	cpuProfile   bool
}

func parseConfig() (*config, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}
	return &config{
		instanceFile: flag.Arg(0),
		gzip:         *flagGzip,
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
	}, nil
}

func run(cfg *config) error {
	s := sat.NewDefaultSolver()
	if err := dimacs.LoadDIMACS(cfg.instanceFile, cfg.gzip, s); err != nil {
		return fmt.Errorf("could not parse instance: %s", err)
	}

	fmt.Printf("c variables:  %d\n", s.NumVars())

	t := time.Now()
	status := s.Solve()
	elapsed := time.Since(t)

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:  %d (%.2f /sec)\n", s.TotalConflicts, float64(s.TotalConflicts)/elapsed.Seconds())
	fmt.Printf("c restarts:   %d\n", s.TotalRestarts)
	fmt.Printf("c status:     %s\n", status)

	if status == sat.True {
		fmt.Print("v ")
		for v := 0; v < s.NumVars(); v++ {
			lit := -(v + 1)
			if s.Model(sat.Var(v)) {
				lit = v + 1
			}
			fmt.Printf("%d ", lit)
		}
		fmt.Println("0")
	}

	return nil
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
		return
	}
}
