// Command editorctl runs editorial workflow actions against the Mentoro
// database: bulk transitions, the review queue, diffs and entity state.
package main

import (
	"os"

	"mentorocms/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
