package banner

import (
	"fmt"
	"strings"
)

const banner = `
   _____ _            _     _     _
  / ____| |          | |   | |   (_)
 | (___ | |_ __ _ ___| |__ | |__  _ _ __
  \___ \| __/ _' / __| '_ \| '_ \| | '_ \
  ____) | || (_| \__ \ | | | |_) | | | | |
 |_____/ \__\__,_|___/_| |_|_.__/|_|_| |_|

`

type StartupInfo struct {
	Version  string
	Addr     string
	LogLevel string
}

func PrintBanner(info StartupInfo) {
	fmt.Print(banner)
	fmt.Printf("                              v%s\n\n", info.Version)

	width := 50
	fmt.Printf("  %s\n", strings.Repeat("─", width))
	fmt.Printf("  → Address:   http://%s\n", formatAddr(info.Addr))
	fmt.Printf("  → Log Level: %s\n", info.LogLevel)
	fmt.Printf("  %s\n", strings.Repeat("─", width))
	fmt.Println()
}

func formatAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
