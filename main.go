package main

import "github.com/edgeflare/rowpub/cmd/rowpub"

func main() {
	rowpub.Main()
}
