// Command auctiond runs the escrow auction house behind the stream protocol
// and the HTTP API.
package main

func main() {
	Execute()
}
