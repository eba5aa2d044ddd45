package store

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/tstore/lib/core"
)

func parseMode(s string) (core.LockMode, error) {
	switch s {
	case "read":
		return core.LockRead, nil
	case "update":
		return core.LockUpdate, nil
	case "create":
		return core.LockCreate, nil
	default:
		return core.LockNone, fmt.Errorf("invalid mode %q (want read, update, or create)", s)
	}
}

var (
	createCmd = &cobra.Command{
		Use:   "create [key]",
		Short: "Create a key with all properties unassigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := rpcClient.Create([]byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("created=%v\n", ok)
			return nil
		},
	}

	existsCmd = &cobra.Command{
		Use:   "exists [key]",
		Short: "Check whether a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := rpcClient.Exists([]byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("exists=%v secondsSince=%d\n", res.Exists, res.SecondsSince)
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Acquire a lock on one property and read its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, _ := cmd.Flags().GetInt("index")
			modeStr, _ := cmd.Flags().GetString("mode")
			wait, _ := cmd.Flags().GetUint32("wait")
			force, _ := cmd.Flags().GetBool("force")

			mode, err := parseMode(modeStr)
			if err != nil {
				return err
			}

			res, err := rpcClient.Get([]byte(args[0]), []core.PropRequest{{Index: index, Mode: mode}}, wait, force)
			if err != nil {
				return err
			}
			if res.Status != core.ErrNone {
				fmt.Printf("status=%s\n", res.Status)
				return nil
			}
			for _, v := range res.Values {
				fmt.Printf("index=%d lockId=%d value=%s\n", v.Index, v.LockID, string(v.Value))
			}
			return nil
		},
	}

	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Write a property's value and release its lock",
		Long:  "Write a value to a previously locked property. The lock id must come from a prior get with mode update or create",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, _ := cmd.Flags().GetInt("index")
			lockID, _ := cmd.Flags().GetInt32("lock-id")

			status, err := rpcClient.Put([]byte(args[0]), []core.PropEntry{{Index: index, LockID: lockID, Value: []byte(args[1])}})
			if err != nil {
				return err
			}
			fmt.Printf("status=%s\n", status)
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Tombstone a key if no property is locked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetUint32("wait")
			force, _ := cmd.Flags().GetBool("force")

			res, err := rpcClient.Delete([]byte(args[0]), wait, force)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s deleted=%v\n", res.Status, res.Deleted)
			return nil
		},
	}

	removeCmd = &cobra.Command{
		Use:   "remove [key]",
		Short: "Tombstone a key and return its last property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetUint32("wait")
			force, _ := cmd.Flags().GetBool("force")

			res, err := rpcClient.Remove([]byte(args[0]), wait, force)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s\n", res.Status)
			for _, v := range res.Values {
				fmt.Printf("index=%d value=%s\n", v.Index, string(v.Value))
			}
			return nil
		},
	}

	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Clear every key in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Clear(); err != nil {
				return err
			}
			fmt.Println("cleared")
			return nil
		},
	}
)

func init() {
	getCmd.Flags().Int("index", 0, "Property index to lock and read")
	getCmd.Flags().String("mode", "read", "Lock mode to request: read, update, or create")
	getCmd.Flags().Uint32("wait", 0, "Seconds to wait for the lock before giving up. Zero does not wait")
	getCmd.Flags().Bool("force", false, "Take the lock even if it is still held once the wait runs out")

	putCmd.Flags().Int("index", 0, "Property index to write")
	putCmd.Flags().Int32("lock-id", 0, "Lock id obtained from a prior get")

	deleteCmd.Flags().Uint32("wait", 0, "Seconds to wait for outstanding locks before giving up")
	deleteCmd.Flags().Bool("force", false, "Tombstone even if a property is currently locked")

	removeCmd.Flags().Uint32("wait", 0, "Seconds to wait for outstanding locks before giving up")
	removeCmd.Flags().Bool("force", false, "Tombstone even if a property is currently locked")
}
