package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ticketdesk/ticketdesk-server/internal/auth"
)

// Generates a bcrypt hash for the operator credential. The output goes into
// operator_password_hash in config.yaml or TICKETDESK_OPERATOR_PASSWORD_HASH.
func main() {
	password := flag.String("password", "", "password to hash (reads stdin if empty)")
	flag.Parse()

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("hashpw: read password: %v", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	if pw == "" {
		log.Fatal("hashpw: empty password")
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		log.Fatalf("hashpw: %v", err)
	}
	fmt.Println(hash)
}
