package main

import (
	"os"

	"github.com/ridge/ringsource/ringdump"
)

func main() {
	ringdump.Main(os.Args)
}
