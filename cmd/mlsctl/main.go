package main

import "github.com/shandysiswandi/mlsgate/cmd/mlsctl/cmd"

func main() {
	cmd.Execute()
}
