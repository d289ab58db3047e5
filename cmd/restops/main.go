package main

import "github.com/IT24101129/RestaurantEventManagement-sub001/cmd"

func main() {
	cmd.Execute()
}
