package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keybase/internal/api"
	"github.com/heysubinoy/keybase/pkg/codec"
	"github.com/heysubinoy/keybase/pkg/keybase"
	"github.com/heysubinoy/keybase/pkg/kv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	dbPath := flag.String("db", os.Getenv("KEYBASE_DB"), "database file to open locally")
	addr := flag.String("addr", os.Getenv("GRPC_ADDR"), "kv-single gRPC address, used when -db is empty")
	format := flag.String("format", "", "file format for -db: json or yaml (default: by extension)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	level := hclog.Warn
	if *verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: "kv-cli", Level: level, Output: os.Stderr})

	db, err := open(*dbPath, *addr, *format, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	code := run(db, flag.Args())
	if err := db.Close(); err != nil {
		logger.Error("close failed", "error", err)
	}
	os.Exit(code)
}

func open(dbPath, addr, format string, logger hclog.Logger) (kv.Store, error) {
	if dbPath != "" {
		opts := []keybase.Option{keybase.WithLogger(logger)}
		if format != "" {
			c, err := codec.ByName(format, true)
			if err != nil {
				return nil, err
			}
			opts = append(opts, keybase.WithCodec(c))
		}
		conn, err := keybase.Open(dbPath, opts...)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	if addr == "" {
		return nil, fmt.Errorf("either -db or -addr is required")
	}
	// If the address starts with ":", it's missing a host - use localhost
	if addr[0] == ':' {
		addr = "localhost" + addr
	}
	conn, err := grpc.NewClient("passthrough:///"+addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return api.NewRemoteStore(conn, 5*time.Second), nil
}

// run executes one command and returns the exit code.
// Mutations are saved immediately.
func run(db kv.Store, args []string) int {
	switch args[0] {
	case "get":
		if len(args) < 2 {
			fmt.Println("Usage: kv-cli get <key>")
			return 1
		}
		value, ok, err := db.Get(args[1])
		if err != nil {
			return fail("Get", err)
		}
		if !ok {
			fmt.Printf("Key '%s' not found\n", args[1])
			return 1
		}
		printValue(value)

	case "exists":
		if len(args) < 2 {
			fmt.Println("Usage: kv-cli exists <key>")
			return 1
		}
		ok, err := db.Exists(args[1])
		if err != nil {
			return fail("Exists", err)
		}
		fmt.Println(ok)

	case "keys":
		keys, err := db.Keys()
		if err != nil {
			return fail("Keys", err)
		}
		for _, k := range keys {
			fmt.Println(k)
		}

	case "set":
		if len(args) < 3 {
			fmt.Println("Usage: kv-cli set <key> <value>")
			return 1
		}
		if err := db.Set(args[1], parseValue(args[2])); err != nil {
			return fail("Set", err)
		}
		if err := db.Save(); err != nil {
			return fail("Save", err)
		}
		fmt.Printf("Set '%s' = '%s'\n", args[1], args[2])

	case "delete":
		if len(args) < 2 {
			fmt.Println("Usage: kv-cli delete <key>")
			return 1
		}
		if err := db.Remove(args[1]); err != nil {
			return fail("Delete", err)
		}
		if err := db.Save(); err != nil {
			return fail("Save", err)
		}
		fmt.Printf("Deleted '%s'\n", args[1])

	default:
		fmt.Printf("Unknown command: %s\n", args[0])
		printUsage()
		return 1
	}
	return 0
}

// parseValue reads s as a JSON literal when it is one, so numbers, booleans
// and objects keep their type. Anything else is stored as a string.
func parseValue(s string) any {
	v, err := codec.Unmarshal([]byte(s))
	if err != nil {
		return s
	}
	return v
}

func printValue(v any) {
	if s, ok := v.(string); ok {
		fmt.Println(s)
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(b))
}

func fail(op string, err error) int {
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", op, err)
	return 1
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  kv-cli [-db file | -addr host:port] get <key>")
	fmt.Println("  kv-cli [-db file | -addr host:port] set <key> <value>")
	fmt.Println("  kv-cli [-db file | -addr host:port] delete <key>")
	fmt.Println("  kv-cli [-db file | -addr host:port] exists <key>")
	fmt.Println("  kv-cli [-db file | -addr host:port] keys")
	fmt.Println("")
	fmt.Println("Environment variables:")
	fmt.Println("  KEYBASE_DB - default for -db")
	fmt.Println("  GRPC_ADDR  - default for -addr")
}
