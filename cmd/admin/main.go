package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/farmkeeper/internal/admin"
)

func main() {

	app := admin.NewApp(os.Stdin, os.Stdout)

	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
