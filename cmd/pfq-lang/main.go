// pfq-lang builds, stores and evaluates PFQ/lang compositions.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-pfq/cmd/pfq-lang/cli"
)

func main() {
	c := cli.CLI{Out: os.Stdout}
	ctx := kong.Parse(&c, cli.KongOptions()...)
	ctx.FatalIfErrorf(ctx.Run(&c))
}
