// Package command provides CLI command definitions for blobnom-cli.
package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check server liveness",
		ArgsUsage: "[message]",
		Action:    pingAction,
	}
}

func pingAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("usage: ping [message]")
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	reply, err := cl.Ping(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a value by key",
		ArgsUsage: "<key>",
		Action:    getAction,
	}
}

func getAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: get <key>")
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	value, found, err := cl.Get(c.Args().First())
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("(nil)")
		return nil
	}

	// Values are binary; write them raw.
	os.Stdout.Write(value)
	fmt.Println()
	return nil
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value under a key. A value of - reads stdin.",
		ArgsUsage: "<key> <value|->",
		Action:    setAction,
	}
}

func setAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: set <key> <value|->")
	}

	value := []byte(c.Args().Get(1))
	if c.Args().Get(1) == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		value = data
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.Set(c.Args().First(), value); err != nil {
		return err
	}

	fmt.Println("OK")
	return nil
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Remove a key. Prints 1 if it existed, 0 otherwise.",
		ArgsUsage: "<key>",
		Action:    delAction,
	}
}

func delAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: del <key>")
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	removed, err := cl.Del(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Println(boolDigit(removed))
	return nil
}

// ExistsCommand returns the exists command.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Check key presence. Prints 1 if present, 0 otherwise.",
		ArgsUsage: "<key>",
		Action:    existsAction,
	}
}

func existsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: exists <key>")
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	present, err := cl.Exists(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Println(boolDigit(present))
	return nil
}

// InfoCommand returns the info command.
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show server information, optionally one section",
		ArgsUsage: "[section]",
		Action:    infoAction,
	}
}

func infoAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("usage: info [section]")
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	text, err := cl.Info(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Print(text)
	return nil
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
