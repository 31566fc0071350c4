package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner with the resolved version.
func PrintBanner() {
	banner.PrintSimple("Persona", GetVersion())
}
