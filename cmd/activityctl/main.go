// Command activityctl talks to the activities gRPC service.
//
//	activityctl [-addr host:port] list
//	activityctl [-addr host:port] signup <activity> <email>
//	activityctl [-addr host:port] unregister <activity> <email>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfagnish/mergington-activities/internal/rpc"
)

var errUsage = errors.New("usage: activityctl [-addr host:port] list | signup <activity> <email> | unregister <activity> <email>")

func main() {
	addr := flag.String("addr", "localhost:9000", "gRPC server address")
	timeout := flag.Duration("timeout", 10*time.Second, "per-call timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client, err := rpc.NewClient(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := run(ctx, client, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, client *rpc.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd := args[0]; cmd {
	case "list":
		if len(args) != 1 {
			return errUsage
		}
		activities, err := client.ListActivities(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(activities)

	case "signup", "unregister":
		if len(args) != 3 {
			return errUsage
		}
		call := client.Signup
		if cmd == "unregister" {
			call = client.Unregister
		}
		msg, err := call(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, msg)
		return err

	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}
