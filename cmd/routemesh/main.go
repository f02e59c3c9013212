// Command routemesh routes queries to LLM personas from the terminal.
package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:]))
}
