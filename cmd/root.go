package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/tstore/cmd/serve"
	"github.com/ValentinKolb/tstore/cmd/store"
	"github.com/ValentinKolb/tstore/cmd/util"
)

const Version = "1.0.0"

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "tstore",
		Short: "transient property store",
		Long: fmt.Sprintf(`tstore (v%s)

An in-memory, key-value transient property store with per-property
Read/Update/Create locking and dual-clock expiration.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tstore",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tstore v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(store.StoreCommands)
	RootCmd.AddCommand(versionCmd)

	key := "codec"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("codec to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
