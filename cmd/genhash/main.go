// cmd/genhash/main.go: Imprime el digest de una contraseña con el algoritmo configurado.
// Uso: go run ./cmd/genhash [-algo sha256|bcrypt] <password>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"
)

func main() {
	algo := flag.String("algo", "sha256", "sha256 | bcrypt")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: genhash [-algo sha256|bcrypt] <password>")
		os.Exit(2)
	}

	verif, err := service.NewVerificador(*algo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	h, err := verif.Hash(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	fmt.Println(h)
}
