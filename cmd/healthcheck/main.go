// Command healthcheck probes a registry server endpoint and exits 0 on a
// 2xx response, 1 otherwise. Intended as a container health probe.
//
// Usage: healthcheck [url]   (default http://localhost:8080/readyz)
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	url := "http://localhost:8080/readyz"
	if flag.NArg() > 0 {
		url = flag.Arg(0)
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "healthcheck failed: status %d\n", resp.StatusCode)
	os.Exit(1)
}
