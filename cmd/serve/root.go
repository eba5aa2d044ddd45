package serve

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/ValentinKolb/tstore/cmd/util"
	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/lib/log"
	"github.com/ValentinKolb/tstore/lib/metrics"
	"github.com/ValentinKolb/tstore/lib/registry"
	"github.com/ValentinKolb/tstore/lib/sweeper"
	"github.com/ValentinKolb/tstore/rpc/server"
	"github.com/ValentinKolb/tstore/rpc/transport"
	httptransport "github.com/ValentinKolb/tstore/rpc/transport/http"
	"github.com/ValentinKolb/tstore/rpc/transport/tcp"
	"github.com/ValentinKolb/tstore/rpc/transport/unix"
)

var serveLogger = log.Get("serve")

// ServeCmd starts a tstore server: one default TransientStore, driven by a
// background sweeper, exposed over the configured transport and codec.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a tstore server",
	Long:  `Start a tstore server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is TSTORE_<flag> (e.g. TSTORE_TIMEOUT=15s)`,
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)

	key := "store-name"
	ServeCmd.PersistentFlags().String(key, "default", cmdUtil.WrapString("Name the default store is registered under"))

	key = "props"
	ServeCmd.PersistentFlags().Int(key, 8, cmdUtil.WrapString("Number of properties per key"))

	key = "timeout"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("TimeOut after which an idle entry expires. Zero expires every entry at the next sweep"))

	key = "lock-timeout"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("LockTimeOut after which a held lock expires and stops blocking other requests (its id is kept until cleared). Zero expires locks after about a millisecond"))

	key = "sweep-period"
	ServeCmd.PersistentFlags().Duration(key, sweeper.DefaultTimeoutCheckPeriod, cmdUtil.WrapString("How often the sweeper drains the lock-wait queue and evicts timed-out entries"))

	key = "max-memory-bytes"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("Advisory heap ceiling that triggers a GC probe. Zero disables the memory probe"))

	key = "listen"
	ServeCmd.PersistentFlags().String(key, "tcp://:8080", cmdUtil.WrapString("Address to listen on, as scheme://address (tcp://:9090, unix:///tmp/tstore.sock, http://:8080)"))

	// codec is inherited from RootCmd's persistent flags.

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("Log level (debug, info, warn, error)"))

	key = "metrics-listen"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, serve Prometheus metrics over HTTP at this address (e.g. :9100)"))
}

func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("tstore")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	log.SetGlobalLevel(log.ParseLevel(viper.GetString("log-level")))

	storeName := viper.GetString("store-name")
	store, err := core.NewTransientStore(
		core.WithNumProps(viper.GetInt("props")),
		core.WithTimeOut(viper.GetDuration("timeout")),
		core.WithLockTimeOut(viper.GetDuration("lock-timeout")),
	)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	reg := registry.New()
	if !reg.Add(storeName, store) {
		return fmt.Errorf("register store %q: already registered", storeName)
	}

	metricsReg := metrics.New()
	store.SetMetrics(metricsReg.ForStore(storeName))

	sw := sweeper.New(reg,
		sweeper.WithTimeoutCheckPeriod(viper.GetDuration("sweep-period")),
		sweeper.WithMaxMemoryBytes(viper.GetUint64("max-memory-bytes")),
	)
	sw.SetMetrics(metricsReg.Shared())
	sw.Start()
	defer sw.Stop()

	if addr := viper.GetString("metrics-listen"); addr != "" {
		go serveMetrics(addr, metricsReg)
	}

	c, err := cmdUtil.GetCodec()
	if err != nil {
		return err
	}

	scheme, endpoint, err := splitListenAddr(viper.GetString("listen"))
	if err != nil {
		return err
	}

	t, err := serverTransportFromScheme(scheme)
	if err != nil {
		return err
	}

	srv := server.New(reg, c, t, server.Config{DefaultStore: storeName})
	serveLogger.Infof("serving store %q on %s (%s codec)", storeName, viper.GetString("listen"), viper.GetString("codec"))
	return srv.Serve(transport.ServerConfig{
		Transport: transport.TransportConfig{Endpoint: endpoint},
		LogLevel:  viper.GetString("log-level"),
	})
}

func serveMetrics(addr string, reg *metrics.Registry) {
	serveLogger.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, reg.Handler()); err != nil {
		serveLogger.Errorf("metrics server stopped: %v", err)
	}
}

func serverTransportFromScheme(scheme string) (transport.ServerTransport, error) {
	switch scheme {
	case "http":
		return httptransport.NewServerTransport(), nil
	case "tcp":
		return tcp.NewServerTransport(), nil
	case "unix":
		return unix.NewDefaultServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid listen scheme %q (want tcp, unix, or http)", scheme)
	}
}

// splitListenAddr parses a scheme://address listen spec.
func splitListenAddr(listen string) (scheme, address string, err error) {
	parts := strings.SplitN(listen, "://", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid listen address %q (want scheme://address)", listen)
	}
	return parts[0], parts[1], nil
}
