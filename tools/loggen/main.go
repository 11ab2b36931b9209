// Command loggen writes synthetic Minecraft server log lines to a file
// for exercising the tailer end to end. It can periodically truncate
// the file to simulate the server's nightly log rotation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"golang.org/x/time/rate"
)

var players = []string{"Alice", "Bob", "Carol", "Dave", "Mallory", "Trent"}

var templates = []string{
	"[%s] [Server thread/INFO]: %s joined the game",
	"[%s] [Server thread/INFO]: %s left the game",
	"[%s] [Server thread/INFO]: %s fell from a high place",
	"[%s] [Server thread/INFO]: %s was slain by Zombie",
	"[%s] [Server thread/INFO]: %s has made the advancement [Stone Age]",
	"[%s] [Server thread/INFO]: <%s> anyone near spawn?",
	"[%s] [Server thread/WARN]: Can't keep up! Is the server overloaded?",
	"[%s] [Server thread/ERROR]: Exception in tick loop",
}

func main() {
	path := flag.String("path", "./latest.log", "Log file to append to")
	lps := flag.Float64("lps", 5, "Lines per second")
	duration := flag.Duration("d", 60*time.Second, "How long to generate")
	rotateEvery := flag.Duration("rotate", 0, "Truncate the file at this interval (0 disables)")
	flag.Parse()

	f, err := os.OpenFile(*path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	log.Printf("Writing ~%.1f lines/s to %s for %s", *lps, *path, *duration)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*lps), 1)

	var rotate <-chan time.Time
	if *rotateEvery > 0 {
		ticker := time.NewTicker(*rotateEvery)
		defer ticker.Stop()
		rotate = ticker.C
	}

	var written int64
	for {
		if err := limiter.Wait(ctx); err != nil {
			log.Printf("Done. Wrote %d lines.", written)
			return
		}

		select {
		case <-rotate:
			if err := f.Truncate(0); err != nil {
				log.Fatalf("truncate: %v", err)
			}
			if _, err := f.Seek(0, 0); err != nil {
				log.Fatalf("seek: %v", err)
			}
			log.Printf("Rotated %s after %d lines", *path, written)
		default:
		}

		tmpl := templates[rand.Intn(len(templates))]
		stamp := time.Now().Format("15:04:05")
		var line string
		switch {
		case countVerbs(tmpl) == 2:
			line = fmt.Sprintf(tmpl, stamp, players[rand.Intn(len(players))])
		default:
			line = fmt.Sprintf(tmpl, stamp)
		}

		if _, err := fmt.Fprintln(f, line); err != nil {
			log.Fatalf("write: %v", err)
		}
		written++
	}
}

// countVerbs reports how many format verbs the template expects.
func countVerbs(tmpl string) int {
	n := 0
	for i := 0; i < len(tmpl)-1; i++ {
		if tmpl[i] == '%' && tmpl[i+1] == 's' {
			n++
		}
	}
	return n
}
