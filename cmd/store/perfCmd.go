package store

import (
	"fmt"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/tstore/lib/core"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for tstore servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__test"
	perfNumThreads = 10
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", "Benchmarks to skip (comma separated - e.g. create,get)")
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, "Number of threads to use for the benchmark")
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, "How many different keys to use for the tests")
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	if skip := viper.GetString("skip"); skip != "" {
		perfSkip = strings.Split(skip, ",")
	}
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for tstore servers")
	fmt.Printf("Threads: %d, Keys: %d\n\n", perfNumThreads, perfKeySpread)

	createResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("create") {
			return
		}
		getKey, iter := getKeys("create")
		b.Cleanup(func() {
			iter(func(k string) {
				if _, err := rpcClient.Remove([]byte(k), 0, true); err != nil {
					log.Printf("(create) - error cleaning up key: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcClient.Create([]byte(getKey(counter))); err != nil {
					log.Printf("(create) - error creating key: %v\n", err)
				}
				counter++
			}
		})
	})
	printResult("create", createResult)

	putResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("put") {
			return
		}
		getKey, iter := getKeys("put")
		iter(func(k string) {
			if _, err := rpcClient.Create([]byte(k)); err != nil {
				log.Printf("(put) - error creating key: %v\n", err)
			}
		})
		b.Cleanup(func() {
			iter(func(k string) {
				if _, err := rpcClient.Remove([]byte(k), 0, true); err != nil {
					log.Printf("(put) - error cleaning up key: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				key := []byte(getKey(counter))
				res, err := rpcClient.Get(key, []core.PropRequest{{Index: 0, Mode: core.LockUpdate}}, 0, true)
				if err != nil || res.Status != core.ErrNone {
					log.Printf("(put) - error locking key: %v (status %v)\n", err, res.Status)
					counter++
					continue
				}
				if _, err := rpcClient.Put(key, []core.PropEntry{{Index: 0, LockID: res.Values[0].LockID, Value: []byte("test")}}); err != nil {
					log.Printf("(put) - error writing key: %v\n", err)
				}
				counter++
			}
		})
	})
	printResult("put", putResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}
		getKey, iter := getKeys("get")
		iter(func(k string) {
			if _, err := rpcClient.Create([]byte(k)); err != nil {
				log.Printf("(get) - error creating key: %v\n", err)
			}
		})
		b.Cleanup(func() {
			iter(func(k string) {
				if _, err := rpcClient.Remove([]byte(k), 0, true); err != nil {
					log.Printf("(get) - error cleaning up key: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcClient.Get([]byte(getKey(counter)), []core.PropRequest{{Index: 0, Mode: core.LockRead}}, 0, false); err != nil {
					log.Printf("(get) - error reading key: %v\n", err)
				}
				counter++
			}
		})
	})
	printResult("get", getResult)

	existsResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("exists") {
			return
		}
		getKey, iter := getKeys("exists")
		iter(func(k string) {
			if _, err := rpcClient.Create([]byte(k)); err != nil {
				log.Printf("(exists) - error creating key: %v\n", err)
			}
		})
		b.Cleanup(func() {
			iter(func(k string) {
				if _, err := rpcClient.Remove([]byte(k), 0, true); err != nil {
					log.Printf("(exists) - error cleaning up key: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcClient.Exists([]byte(getKey(counter))); err != nil {
					log.Printf("(exists) - error checking key: %v\n", err)
				}
				counter++
			}
		})
	})
	printResult("exists", existsResult)

	deleteResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("delete") {
			return
		}
		getKey, iter := getKeys("delete")
		b.ResetTimer()
		b.StopTimer()
		for n := 0; n < b.N; n++ {
			iter(func(k string) {
				if _, err := rpcClient.Create([]byte(k)); err != nil {
					log.Printf("(delete) - error creating key: %v\n", err)
				}
			})
			b.StartTimer()
			counter := 0
			for i := 0; i < perfKeySpread; i++ {
				if _, err := rpcClient.Delete([]byte(getKey(counter)), 0, true); err != nil {
					log.Printf("(delete) - error deleting key: %v\n", err)
				}
				counter++
			}
			b.StopTimer()
		}
	})
	printResult("delete", deleteResult)

	return nil
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}
