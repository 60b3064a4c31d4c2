package main

import "github.com/CosmoTheDev/cgconsole/cmd"

func main() {
	cmd.Execute()
}
