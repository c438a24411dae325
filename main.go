package main

import "github.com/KaramelBytes/winestat/cmd"

func main() {
	cmd.Execute()
}
