package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/tstore/rpc/codec"
	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/transport/http"
	"github.com/ValentinKolb/tstore/rpc/transport/tcp"
	"github.com/ValentinKolb/tstore/rpc/transport/unix"
)

// helpWidth is the column help text wraps at.
const helpWidth = 50

// WrapString greedily wraps text into lines no wider than helpWidth,
// breaking only on word boundaries. A word itself longer than helpWidth is
// kept whole rather than split.
func WrapString(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := lines[len(lines)-1]
		if len(last)+1+len(word) > helpWidth {
			lines = append(lines, word)
			continue
		}
		lines[len(lines)-1] = last + " " + word
	}

	return strings.Join(lines, "\n")
}

// rpcFlag is one persistent flag shared by every store subcommand, declared
// once and registered by SetupRPCClientFlags. Table-driven registration
// keeps the flag name, default, and help text next to each other instead of
// spread across a block of repeated PersistentFlags() calls.
type rpcFlag struct {
	name string
	help string
	// register binds this flag to cmd's persistent flag set.
	register func(cmd *cobra.Command, name, help string)
}

func stringFlag(deflt string) func(*cobra.Command, string, string) {
	return func(cmd *cobra.Command, name, help string) { cmd.PersistentFlags().String(name, deflt, help) }
}

func intFlag(deflt int) func(*cobra.Command, string, string) {
	return func(cmd *cobra.Command, name, help string) { cmd.PersistentFlags().Int(name, deflt, help) }
}

func boolFlag(deflt bool) func(*cobra.Command, string, string) {
	return func(cmd *cobra.Command, name, help string) { cmd.PersistentFlags().Bool(name, deflt, help) }
}

func durationFlag(deflt time.Duration) func(*cobra.Command, string, string) {
	return func(cmd *cobra.Command, name, help string) { cmd.PersistentFlags().Duration(name, deflt, help) }
}

// rpcFlags lists the client-side connection flags. Names deliberately avoid
// a "transport-" prefix: RootCmd already owns a "transport" flag selecting
// the scheme (http/tcp/unix), so stuttering it here would only invite
// confusion between "which transport" and "how to tune it".
func rpcFlags() []rpcFlag {
	return []rpcFlag{
		{"store", "Name of the target store on the server", stringFlag("default")},
		{"timeout", "The timeout of the client", durationFlag(10 * time.Second)},
		{"endpoints", "The address of the tstore server. For transports that support load balancing, multiple endpoints can be specified as a comma-separated list", stringFlag("http://localhost:8080")},
		{"conn-per-endpoint", "Simultaneous connections per endpoint - for transports that support this feature", intFlag(1)},
		{"retries", "How many times to retry the request", intFlag(3)},
		{"write-buffer-kb", "The size of the write buffer for the transport (in KB, only for tcp)", intFlag(512)},
		{"read-buffer-kb", "The size of the read buffer for the transport (in KB, only for tcp)", intFlag(512)},
		{"tcp-nodelay", "Whether to enable TCP_NODELAY for the transport (only for tcp)", boolFlag(true)},
		{"tcp-keepalive", "The keepalive interval for the transport (in seconds, only for tcp)", intFlag(0)},
		{"tcp-linger", "The linger time for the transport (in seconds; read into the client config, but the tcp client does not apply it)", intFlag(0)},
	}
}

// SetupRPCClientFlags adds the common RPC connection flags to cmd.
func SetupRPCClientFlags(cmd *cobra.Command) {
	for _, f := range rpcFlags() {
		f.register(cmd, f.name, WrapString(f.help))
	}
}

// InitClientConfig wires environment-variable configuration for the store
// subcommands: .env files load first, then TSTORE_* env vars bind over
// whatever flags set, matching the server command's own env convention.
func InitClientConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("tstore")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// GetClientConfig builds a transport.ClientConfig from whatever
// SetupRPCClientFlags registered and BindCommandFlags bound.
func GetClientConfig() transport.ClientConfig {
	return transport.ClientConfig{
		Transport: transport.TransportConfig{
			Endpoints:              strings.Split(viper.GetString("endpoints"), ","),
			ConnectionsPerEndpoint: viper.GetInt("conn-per-endpoint"),
			RetryCount:             viper.GetInt("retries"),
			TimeoutSecond:          int(viper.GetDuration("timeout").Seconds()),
			WriteBufferSize:        viper.GetInt("write-buffer-kb") * 1024,
			ReadBufferSize:         viper.GetInt("read-buffer-kb") * 1024,
			TCPNoDelay:             viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec:        viper.GetInt("tcp-keepalive"),
			TCPLingerSec:           viper.GetInt("tcp-linger"),
		},
	}
}

// GetStoreName returns the configured target store name.
func GetStoreName() string {
	return viper.GetString("store")
}

// GetCodec creates a codec based on configuration.
func GetCodec() (codec.Codec, error) {
	switch viper.GetString("codec") {
	case "json":
		return codec.NewJSON(), nil
	case "gob":
		return codec.NewGOB(), nil
	case "binary":
		return codec.NewBinary(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", viper.GetString("codec"))
	}
}

// GetClientTransport creates a client transport based on configuration.
func GetClientTransport() (transport.ClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewClientTransport(), nil
	case "tcp":
		return tcp.NewClientTransport(), nil
	case "unix":
		return unix.NewClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper.
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
