// Command trendwire aggregates what developers are reading and drafts
// newsletter copy from it.
//
// Usage:
//
//	trendwire trending [--audience a,b] [--ranked] [--limit n] [--refresh] [--format table|json|rss|atom]
//	trendwire search <query>
//	trendwire generate section|topics|summary
//	trendwire extract-json < reply.txt
//	trendwire sanitize <text>
//	trendwire artifacts list|show|delete
//	trendwire sources [--history]
//	trendwire history [--limit n]
//	trendwire serve [--addr :8080] [--refresh-every d]
//	trendwire config init|show
//	trendwire version
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
