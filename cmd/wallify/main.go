// Command wallify rotates the desktop wallpaper with images from online
// photo providers.
package main

import (
	"os"

	_ "github.com/rk/wallify/pkg/rotation/providers/pexels"
	_ "github.com/rk/wallify/pkg/rotation/providers/unsplash"
	_ "github.com/rk/wallify/pkg/rotation/providers/wallhaven"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
