// Command citizen discovers, generates and inspects modelcitizen blueprints.
package main

import "github.com/marshallshelly/modelcitizen/cmd/citizen/commands"

func main() {
	commands.Execute()
}
