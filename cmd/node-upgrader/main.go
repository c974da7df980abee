package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aryankumar/node-upgrader/internal/cli"
	"github.com/aryankumar/node-upgrader/internal/util"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := util.FriendlyError(err); hint != err.Error() {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}
