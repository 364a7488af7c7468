package main

import (
	"os"

	"github.com/ridge/ringsource/ringmirror"
)

func main() {
	ringmirror.Main(os.Args)
}
