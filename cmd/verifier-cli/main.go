// verifier-cli is a thin HTTP client for verifier-server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultBase    = "http://localhost:9000"
	requestTimeout = 60 * time.Second
)

type client struct {
	base string
	http *http.Client
	out  io.Writer
}

type command struct {
	synopsis string
	run      func(c *client, args []string) error
}

var commands = map[string]command{
	"verify": {
		synopsis: "-sender <account> [-f proof.json]   submit a proof (stdin without -f)",
		run:      verify,
	},
	"events": {
		synopsis: "[circuit]                           list recorded provided-valid-proof events",
		run: func(c *client, args []string) error {
			q := url.Values{}
			if len(args) > 0 {
				q.Set("circuit", args[0])
			}
			return c.get("/proofs/events", q)
		},
	},
	"circuits": {
		synopsis: "                                    list circuits and their public input counts",
		run:      func(c *client, _ []string) error { return c.get("/circuits", nil) },
	},
	"vk": {
		synopsis: "<circuit>                           fetch a verifying key",
		run: func(c *client, args []string) error {
			if len(args) == 0 {
				return errors.New("vk: circuit id required")
			}
			return c.get("/circuits/"+url.PathEscape(args[0])+"/verifying-key", nil)
		},
	},
	"metrics": {
		synopsis: "                                    dump prometheus metrics",
		run:      func(c *client, _ []string) error { return c.get("/metrics", nil) },
	},
	"health": {
		synopsis: "                                    broker and worker status",
		run:      func(c *client, _ []string) error { return c.get("/healthz", nil) },
	},
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}

	c := &client{
		base: envOr("API_BASE", defaultBase),
		http: &http.Client{Timeout: requestTimeout},
		out:  os.Stdout,
	}
	if err := cmd.run(c, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: verifier-cli <command> [options]\n\nCommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].synopsis)
	}
	fmt.Fprintf(w, "\nEnvironment:\n  API_BASE  server address (default %s)\n", defaultBase)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func verify(c *client, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	sender := fs.String("sender", "", "base58 account submitting the proof (required)")
	file := fs.String("f", "", "proof JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sender == "" {
		return errors.New("verify: -sender is required")
	}

	var body []byte
	var err error
	if *file != "" {
		body, err = os.ReadFile(*file)
	} else {
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return errors.Wrap(err, "read proof")
	}
	if !json.Valid(body) {
		return errors.New("verify: proof is not valid JSON")
	}

	req, err := http.NewRequest(http.MethodPost, c.base+"/proofs/verify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sender", *sender)
	return c.send(req)
}

func (c *client) get(path string, query url.Values) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.send(req)
}

// send prints the status line and the body, indenting JSON bodies. Non 2xx
// responses are returned as errors after printing.
func (c *client) send(req *http.Request) error {
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	fmt.Fprintf(c.out, "%s %s -> %s\n", req.Method, req.URL.Path, res.Status)
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		raw = pretty.Bytes()
	}
	fmt.Fprintf(c.out, "%s\n", raw)

	if res.StatusCode/100 != 2 {
		return errors.Errorf("server answered %d", res.StatusCode)
	}
	return nil
}
