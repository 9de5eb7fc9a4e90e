// loanworker — инструмент командной строки для отправки заявок
// и чтения рекомендаций через HTTP API.
//
// Использование:
//
//	loanworker [--api-url URL] [--json] task <submit|show|list|wait> [flags]
package main

import (
	"fmt"
	"os"

	"github.com/shaiso/loanworker/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
