// Command hashpass prints the bcrypt hash to put in KEYU_ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/01moynul/keyu-storefront/internal/auth"
)

func main() {
	password := pflag.StringP("password", "p", "", "password to hash (read from stdin when empty)")
	pflag.Parse()

	plain := *password
	if plain == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "hashpass: no password given")
			os.Exit(2)
		}
		plain = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(plain)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpass:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
