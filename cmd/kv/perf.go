package kv

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/cmd/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance test through the guard",
		Long:    "Runs concurrent load against the store through the guard and reports latency percentiles, throughput and the guard's counters.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix      = "__test"
	perfValueSizeBytes = 64
	perfNumThreads     = 10
	perfOpsPerThread   = 1000
	perfKeySpread      = 100
	perfSkip           []string
)

// perfTest is one benchmark. op is called with the key index and returns the error of the store call.
type perfTest struct {
	name    string
	prepare bool // write all keys before the test
	op      func(key string, value []byte) error
}

var perfTests = []perfTest{
	{name: "set", op: func(key string, value []byte) error {
		return rpcStore.Set(key, value)
	}},
	{name: "get", prepare: true, op: func(key string, _ []byte) error {
		_, _, err := rpcStore.Get(key)
		return err
	}},
	{name: "has", prepare: true, op: func(key string, _ []byte) error {
		_, err := rpcStore.Has(key)
		return err
	}},
	{name: "delete", prepare: true, op: func(key string, _ []byte) error {
		return rpcStore.Delete(key)
	}},
}

func init() {
	flags := perfTestCmd.Flags()
	flags.String("skip", "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	flags.Int("threads", 10, util.WrapString("Number of goroutines issuing requests"))
	flags.Int("ops", 1000, util.WrapString("Number of requests per goroutine and benchmark"))
	flags.Int("value-size", 64, util.WrapString("Size of the values written (in bytes)"))
	flags.Int("keys", 100, util.WrapString("How many different keys to use for the tests"))
	flags.Bool("metrics", false, util.WrapString("Print the guard's metrics in Prometheus format after the tests"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = max(1, viper.GetInt("threads"))
	perfOpsPerThread = max(1, viper.GetInt("ops"))
	perfValueSizeBytes = max(0, viper.GetInt("value-size"))
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance test through the guard")
	fmt.Print(kvGuard.Config().String())
	fmt.Printf("\n  %-22s: %d\n  %-22s: %d\n\n", "Threads", perfNumThreads, "Ops Per Thread", perfOpsPerThread)

	registry := metrics.NewRegistry()
	defer registry.UnregisterAll()

	value := make([]byte, perfValueSizeBytes)
	for _, test := range perfTests {
		if slices.Contains(perfSkip, test.name) {
			fmt.Printf("%-10sskipped\n", test.name)
			continue
		}
		keys := perfKeys(test.name)

		if test.prepare {
			for _, k := range keys {
				if err := rpcStore.Set(k, value); err != nil {
					log.Printf("(%s) - error preparing key: %v\n", test.name, err)
				}
			}
		}

		timer := metrics.GetOrRegisterTimer(test.name+".latency", registry)
		errs := metrics.GetOrRegisterCounter(test.name+".errors", registry)
		elapsed := runParallel(func(i int) {
			start := time.Now()
			err := test.op(keys[i%len(keys)], value)
			timer.UpdateSince(start)
			if err != nil {
				errs.Inc(1)
			}
		})

		printPerfResult(test.name, timer, errs.Count(), elapsed)

		for _, k := range keys {
			_ = rpcStore.Delete(k)
		}
	}

	fmt.Printf("\nguard: %s\n", kvGuard.Stats())
	if viper.GetBool("metrics") {
		fmt.Println()
		kvGuard.WritePrometheus(os.Stdout)
	}
	return nil
}

// runParallel calls op perfOpsPerThread times on each of perfNumThreads goroutines
func runParallel(op func(i int)) time.Duration {
	var wg sync.WaitGroup
	start := time.Now()
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			for i := 0; i < perfOpsPerThread; i++ {
				op(t*perfOpsPerThread + i)
			}
		}(t)
	}
	wg.Wait()
	return time.Since(start)
}

// perfKeys returns the keys used by a test
func perfKeys(test string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, test, i)
	}
	return keys
}

// printPerfResult prints latency percentiles and throughput of a test
func printPerfResult(test string, timer metrics.Timer, errors int64, elapsed time.Duration) {
	p := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	opsPerSec := float64(timer.Count()) / max(elapsed.Seconds(), 1e-9)

	fmt.Printf("%-10s%8.0f ops/sec  mean %-10s p50 %-10s p95 %-10s p99 %-10s errors %d\n",
		test,
		opsPerSec,
		time.Duration(timer.Mean()).Round(time.Microsecond),
		time.Duration(p[0]).Round(time.Microsecond),
		time.Duration(p[1]).Round(time.Microsecond),
		time.Duration(p[2]).Round(time.Microsecond),
		errors,
	)
}
