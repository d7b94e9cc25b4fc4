package kv

import (
	"fmt"
	"github.com/spf13/cobra"
	"strconv"
)

// storeCommand builds a kv subcommand taking exactly nArgs arguments. run performs the store
// call and returns the line printed on success.
func storeCommand(use, short string, nArgs int, run func(args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			out, err := run(args)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

var (
	setCmd = storeCommand("set [key] [value]", "Sets the value for a key", 2,
		func(args []string) (string, error) {
			return "set successfully", rpcStore.Set(args[0], []byte(args[1]))
		})

	setECmd = storeCommand("setE [key] [value] [expireIn] [deleteIn]",
		"Sets the value for a key with expiration and deletion time", 4,
		func(args []string) (string, error) {
			expireIn, deleteIn, err := parseExpiry(args[2], args[3])
			if err != nil {
				return "", err
			}
			return "setE successfully", rpcStore.SetE(args[0], []byte(args[1]), expireIn, deleteIn)
		})

	setEIfUnsetCmd = storeCommand("setEIfUnset [key] [value] [expireIn] [deleteIn]",
		"Sets the value for a key with expiration and deletion time if the key is not already set", 4,
		func(args []string) (string, error) {
			expireIn, deleteIn, err := parseExpiry(args[2], args[3])
			if err != nil {
				return "", err
			}
			return "setEIfUnset successfully", rpcStore.SetEIfUnset(args[0], []byte(args[1]), expireIn, deleteIn)
		})

	getCmd = storeCommand("get [key]", "Reads the value for a key", 1,
		func(args []string) (string, error) {
			value, found, err := rpcStore.Get(args[0])
			return fmt.Sprintf("key=%s, found=%v, value=%s", args[0], found, value), err
		})

	exprCmd = storeCommand("expire [key]", "Expires the value for a key", 1,
		func(args []string) (string, error) {
			return "expire successfully", rpcStore.Expire(args[0])
		})

	delCmd = storeCommand("del [key]", "Deletes a key value pair", 1,
		func(args []string) (string, error) {
			return "delete successfully", rpcStore.Delete(args[0])
		})

	hasCmd = storeCommand("has [key]", "Checks if a key exists", 1,
		func(args []string) (string, error) {
			found, err := rpcStore.Has(args[0])
			return fmt.Sprintf("key=%s, found=%t", args[0], found), err
		})
)

func init() {
	exprCmd.Aliases = []string{"expr"}
}

// parseExpiry parses the expireIn and deleteIn arguments
func parseExpiry(expire, del string) (expireIn, deleteIn uint64, err error) {
	if expireIn, err = strconv.ParseUint(expire, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("expireIn must be a number: %w", err)
	}
	if deleteIn, err = strconv.ParseUint(del, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("deleteIn must be a number: %w", err)
	}
	return expireIn, deleteIn, nil
}
