package main

import (
	"os"

	"github.com/ridge/ringsource/ringserver"
)

func main() {
	ringserver.Main(os.Args)
}
