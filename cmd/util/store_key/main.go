// Command store_key saves the Gemini API key in the OS keyring so the server
// can start without FRAMER_API_KEY in the environment.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dixieflatline76/Framer/config"
	"github.com/dixieflatline76/Framer/util/log"
)

func main() {
	fromEnv := flag.Bool("env", false, "read the key from FRAMER_API_KEY or GEMINI_API_KEY instead of stdin")
	flag.Parse()

	var key string
	if *fromEnv {
		key = os.Getenv("FRAMER_API_KEY")
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
	} else {
		fmt.Fprint(os.Stderr, "Gemini API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("reading key: %v", err)
		}
		key = line
	}

	if err := config.StoreAPIKey(trimValue(key)); err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "Stored API key in the %s keyring entry.\n", config.KeyringService)
}

func trimValue(s string) string {
	s = strings.TrimSpace(s)
	// Remove surrounding quotes if present
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	return s
}
