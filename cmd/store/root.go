package store

import (
	"github.com/spf13/cobra"

	cmdUtil "github.com/ValentinKolb/tstore/cmd/util"
	"github.com/ValentinKolb/tstore/rpc/client"
)

var rpcClient *client.Client

// StoreCommands is the store command group: create, exists, get, put,
// delete, remove against one named store on a tstore server.
var StoreCommands = &cobra.Command{
	Use:               "store",
	Short:             "Perform operations against a tstore server",
	PersistentPreRunE: setupClient,
}

func init() {
	cobra.OnInitialize(cmdUtil.InitClientConfig)

	cmdUtil.SetupRPCClientFlags(StoreCommands)

	StoreCommands.AddCommand(createCmd)
	StoreCommands.AddCommand(existsCmd)
	StoreCommands.AddCommand(getCmd)
	StoreCommands.AddCommand(putCmd)
	StoreCommands.AddCommand(deleteCmd)
	StoreCommands.AddCommand(removeCmd)
	StoreCommands.AddCommand(clearCmd)
	StoreCommands.AddCommand(perfTestCmd)
}

// setupClient builds the rpc client against the configured transport and
// codec, bound to the configured target store.
func setupClient(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	t, err := cmdUtil.GetClientTransport()
	if err != nil {
		return err
	}

	c, err := cmdUtil.GetCodec()
	if err != nil {
		return err
	}

	rpcClient, err = client.New(cmdUtil.GetStoreName(), cmdUtil.GetClientConfig(), t, c)
	return err
}
